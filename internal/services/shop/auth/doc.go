// Package auth owns storefront identity: password and passkey sign-in,
// signed session tokens, revocation and the HTTP middleware that resolves
// the caller of each request.
package auth
