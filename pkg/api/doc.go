// Package api defines the JSON wire types exchanged with tokengate clients:
// the login request and response, the error body written on every rejected
// request, and the identity document returned by the sample resources.
//
// The package performs no I/O and has no dependencies beyond the standard
// library.
package api
