// Package auth implements the tokengate authentication pipeline.
//
// Every request entering the Gate is handled by exactly one filter, chosen by
// path: the LoginFilter for the login endpoint, the TokenFilter for everything
// else. Filters delegate to pluggable authenticators (password verification in
// package credential, bearer verification in package bearer) which return an
// Outcome instead of an error. A successful token check is followed by the
// AccessDecision stage, which compares the caller's roles against the role
// required for the path.
//
// The pipeline keeps no state between requests. Everything the server knows
// about a caller after login travels inside the signed token.
package auth
