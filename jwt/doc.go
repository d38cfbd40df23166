// Package jwt inspects identity tokens returned by the sign-in endpoint.
//
// The terminal does not own the identity provider's signing keys, so by default
// tokens are decoded without signature verification and only their registered
// claims are read. A verification key can be configured for deployments that
// run against a local identity emulator signing with HS256 or Ed25519.
package jwt
