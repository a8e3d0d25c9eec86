// Package conv provides checked integer conversions.
//
// They guard values read from untrusted input (asset pack headers) and the
// narrowing of slot coordinates stored in pointer-free index tables. Failures
// wrap ErrOverflow.
//
// For conversions that are provably safe by construction (loop indices,
// bounded counters), use direct type casts instead.
package conv
