// Package storage defines the user store consulted by the login filter and
// the types and sentinel errors shared by its adapters.
//
// Adapters live in subpackages: memory (tests and single-node setups),
// postgres, redis, and cache, a read-through wrapper around any of them.
package storage
