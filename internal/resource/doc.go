// Package resource governs the memory, worker and IO budgets of the block-device
// adapters.
//
//	┌─────────────────────────────────────────────────────────────┐
//	│                        Controller                           │
//	├─────────────────┬─────────────────┬─────────────────────────┤
//	│  Memory Limit   │  Workers (sem)  │  IO Rate Limiter        │
//	│  (fail-fast)    │                 │  (token bucket)         │
//	├─────────────────┼─────────────────┼─────────────────────────┤
//	│  AcquireMemory  │  AcquireWorker  │  AcquireIO              │
//	│  ReleaseMemory  │  ReleaseWorker  │                         │
//	└─────────────────┴─────────────────┴─────────────────────────┘
//
// The block cache charges cached blocks against the memory limit, snapshot
// compression takes a worker slot per chunk, and blob-backed devices pay IO
// tokens for every byte moved to or from the remote store:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:   64 << 20,
//	    MaxWorkers:         4,
//	    IOLimitBytesPerSec: 8 << 20,
//	})
//
// All methods handle a nil Controller gracefully - they become no-ops.
package resource
