// Package app composes the storefront runtime: storage, sessions, media and
// the HTTP server for the shop API. The admin service reuses the runtime.
package app
