// Package server assembles the tokengate HTTP service: it opens the user
// store selected by configuration, builds the token codec and the
// authentication gate, and mounts everything on a chi router behind the
// transport middleware.
package server
