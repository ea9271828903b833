// Package auth defines the identity contract shared by every token
// verifier and the request authenticator.
//
// A deployment validates bearer tokens against exactly one authority,
// chosen at startup by Mode:
//
//   - ModeLocal: HS256 tokens minted by auth/jwt.Issuer
//   - ModeFederated: provider access tokens checked by auth/jwks.FederatedVerifier
//
// Both satisfy TokenVerifier and return *Claims. Every verification failure
// satisfies errors.Is(err, ErrUnauthorized), so callers can answer with one
// uniform 401 without inspecting the cause.
//
// Subpackages:
//
//   - auth/password:   argon2id hashing and provider password generation
//   - auth/jwt:        local token issuer
//   - auth/jwks:       remote JWKS verification with cached key sources
//   - auth/federation: federated sign-in bridge with nonce challenge
//   - auth/authctx:    claims propagation through context.Context
package auth
