// Package identity signs an operator in against a password sign-in endpoint
// speaking the identity-toolkit wire format:
//
//	POST <authURL>
//	{"email": "...", "password": "...", "returnSecureToken": true}
//
// A success response carries localId, email, displayName, idToken,
// refreshToken, expiresIn and registered. A failure response carries
// error.message drawn from a fixed provider vocabulary, which [MapProviderCode]
// translates into this package's sentinel errors.
package identity
