package jwks

import (
	"context"

	"github.com/ovaflus/ovaflus-auth/auth"
	"github.com/ovaflus/ovaflus-auth/observability"
)

const verifierFederated = "federated"

// FederatedVerifier accepts access tokens minted by the federated user pool.
// Only iss and token_use are checked; pool access tokens carry no aud.
type FederatedVerifier struct {
	verifier *Verifier
	issuer   string
	jwksURL  string
	metrics  *observability.AuthMetrics
}

var _ auth.TokenVerifier = (*FederatedVerifier)(nil)

// NewFederatedVerifier creates the bearer verifier for federated mode.
func NewFederatedVerifier(v *Verifier, cfg auth.FederatedConfig, metrics *observability.AuthMetrics) *FederatedVerifier {
	return &FederatedVerifier{
		verifier: v,
		issuer:   cfg.Issuer(),
		jwksURL:  cfg.JWKSURL(),
		metrics:  metrics,
	}
}

// Verify implements auth.TokenVerifier.
func (f *FederatedVerifier) Verify(ctx context.Context, raw string) (*auth.Claims, error) {
	tok, err := f.verifier.Verify(ctx, raw, f.jwksURL, Expectations{
		Issuers:  []string{f.issuer},
		TokenUse: "access",
	})
	if err != nil {
		f.metrics.RecordVerification(ctx, verifierFederated, kindString(err))
		return nil, err
	}

	claims := &auth.Claims{
		Subject:    tok.Subject(),
		IssuedAt:   tok.IssuedAt().Unix(),
		ExpiresAt:  tok.ExpiresAt().Unix(),
		TokenClass: auth.ClassAccess,
	}
	if err := claims.Check(auth.ClassAccess); err != nil {
		f.metrics.RecordVerification(ctx, verifierFederated, KindClaimInvalid.String())
		return nil, newError(KindClaimInvalid, err.Error(), nil)
	}
	f.metrics.RecordVerification(ctx, verifierFederated, "")
	return claims, nil
}
