// Package auth issues and verifies bearer tokens for the nlogd admin API.
//
// Tokens are HS256 JWTs carrying a role. Roles map statically to
// permissions:
//   - viewer: read status and audit history
//   - operator: viewer plus suspend, resume, reload and unload
//
// There is no user store; tokens are minted offline with `nlogd token`
// from the shared secret in admin.auth.jwt_secret.
package auth
