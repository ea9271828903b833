// Package jwks verifies tokens signed by remote issuers against the public
// keys they publish at a JWKS endpoint.
//
// Keys come from a KeySource. HTTPKeySource fetches directly,
// CachedKeySource keeps one set per URL with background refresh, and
// RedisKeySource shares fetched sets between replicas:
//
//	src, _ := jwks.NewHTTPKeySource(5*time.Second, log, metrics)
//	cache := jwks.NewCachedKeySource(src, cfg, log)
//	v := jwks.NewVerifier(cache, jwks.WithLogger(log))
//
//	tok, err := v.Verify(ctx, raw, jwksURL, jwks.Expectations{Issuers: []string{iss}})
//
// Only RS256/384/512 and ES256/384/512 are accepted. Failures are
// *VerifyError values classified by Kind, and all of them match
// auth.ErrUnauthorized under errors.Is.
//
// FederatedVerifier adapts a Verifier to auth.TokenVerifier for the user
// pool, and VerifyIdentity checks Apple and Google identity tokens.
package jwks
