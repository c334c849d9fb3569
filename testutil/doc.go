// Package testutil provides testing utilities for framecore.
//
// This package is intended for use in tests and benchmarks only.
//
// # Random Input Generation
//
//	rng := testutil.NewRNG(seed)
//	sizes := rng.Sizes(100, 64)       // allocation sizes in [1, 64]
//	keys := rng.DistinctKeys(500, 16) // unique hash-table keys
//
// # Contract Checks
//
//	testutil.RequireViolation(t, func() { a.Free(notTop) })
package testutil
