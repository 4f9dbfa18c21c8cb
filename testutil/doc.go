// Package testutil provides testing utilities for fatfs.
//
// This package is intended for use in tests and benchmarks only.
//
// # Seeded Content
//
//	rng := testutil.NewRNG(seed)
//	name := rng.Name(12)          // printable, separator free
//	body := rng.Content(10_000)   // printable text with newlines, no NUL
//
// # Devices
//
//	dev := testutil.FormattedDevice(64)  // in-memory, freshly formatted
package testutil
