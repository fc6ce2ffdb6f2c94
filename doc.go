// Package accounts implements a minimal user-authentication backend:
// registration, login, and signed session tokens over a relational
// credential store.
//
// Credential store:
//   - Users are persisted via Bun with UNIQUE constraints on username and
//     email. The constraints are enforced by the database itself, so two
//     concurrent registrations for the same email cannot both succeed even
//     when both pass the pre-insert lookups; the losing insert surfaces as
//     a conflict error carrying the offending column.
//
// Tokens:
//   - TokenService signs HS256 JWTs embedding subject id, username,
//     issued-at, and expiry. Tokens are never persisted and cannot be
//     revoked; expiry is the only invalidation mechanism.
//
// Error taxonomy:
//   - Flows return go-errors values categorized as validation/conflict
//     (duplicate identifiers), auth (bad credentials, deliberately
//     generic), or internal. The HTTP boundary is the single place that
//     maps categories to status codes and the {"errors": ...} response
//     shape.
package accounts
