// Package auth implements the account and token lifecycle for the
// authentication service: registration with uniqueness guarantees, credential
// verification, JWT issuance, and token validation.
//
// Registration and login:
//   - Register checks email uniqueness before username uniqueness, hashes the
//     password with bcrypt, persists the user, and issues a token. The store's
//     unique indexes remain the authoritative guard; index violations surface
//     as the same duplicate errors the pre-checks produce.
//   - Login verifies existence, password, and the active flag in that order.
//     Missing users and wrong passwords share one caller-facing message.
//
// Tokens:
//   - TokenService signs HS256 JWTs carrying subject, iat, and exp. Validation
//     tolerates a Bearer prefix, is total over arbitrary input, and collapses
//     every failure subtype into an invalid result.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter for registration and login
//     events. Sinks run best-effort (errors are logged) so you can forward to
//     a database or queue without blocking authentication.
package auth
