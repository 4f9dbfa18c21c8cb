// Package conv provides checked integer conversions for on-disk fields.
//
// File sizes in directory entries and block counts in snapshot headers are
// uint32. Converting an in-memory int to them must fail instead of wrapping.
//
// For conversions that are provably safe by domain constraints (e.g., loop
// indices, bounded counters), use direct type casts instead.
package conv
