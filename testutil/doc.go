// Package testutil provides testing utilities for diskset.
//
// This package is intended for use in tests and benchmarks only.
// It provides a deterministic, thread-safe random source and helpers for
// generating random strings, integer sets and skewed access patterns.
//
// # Random Data
//
//	rng := testutil.NewRNG(seed)
//	words := rng.Strings(1000, 20)  // 1000 random 20-character strings
//	keys := rng.UniqueInts(500, 1e6) // 500 distinct ints in [0, 1e6)
//
// # Skewed Access
//
//	idx := rng.Zipf(len(keys), 1.2) // hot keys first
package testutil
