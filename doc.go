// Package auth provides the authentication and authorization core for a
// review-aggregation catalog API: passwordless login via emailed one-time
// confirmation codes, JWT access-token issuance, a layered permission
// model, and the one-review-per-author-per-title write guard.
//
// Login flow:
//   - RequestCode looks up or creates an identity for an email, issues a
//     fresh single-use confirmation code (invalidating any prior pending
//     code), and hands it to a Notifier for out-of-band delivery. The
//     operation never reveals whether the email was already registered.
//   - VerifyCode consumes the code exactly once (first caller wins),
//     activates the identity, and mints a signed access token carrying a
//     snapshot of the identity's role. Token validation is pure signature
//     and expiry checking with no store access.
//
// Authorization:
//   - Decide is a pure decision table over (actor, action, resource kind,
//     resource owner). Reads are open to everyone, catalog-entity writes
//     are admin-only, reviews and comments may be created by any
//     authenticated actor and modified by their author, a moderator, or
//     an admin. Superuser is an orthogonal override.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter describing code
//     issuance, verification outcomes, token issuance, and permission
//     denials. Sinks run best-effort (errors are logged) so you can
//     forward to a database or queue without blocking authentication.
package auth
