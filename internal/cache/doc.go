// Package cache provides a byte-bounded LRU cache for immutable blobs.
//
// Entries are charged against a capacity in bytes and, optionally, against a
// resource.Controller memory budget. A value larger than the capacity, or
// one the controller refuses, is simply not cached.
package cache
