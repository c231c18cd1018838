// Package security holds the stateless credential primitives used by the
// authentication service:
//   - BcryptHasher - salted adaptive password hashing
//   - JWTCodec - signed, time-limited session tokens
//   - ResetIssuer - single-use password reset tickets stored as SHA-256 digests
//
// None of these types touch storage; they are safe for concurrent use once
// constructed.
package security
