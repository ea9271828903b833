package jwks

import (
	"errors"
	"fmt"

	"github.com/ovaflus/ovaflus-auth/auth"
)

// Kind classifies why a remote token was rejected.
type Kind int

const (
	KindBadFormat Kind = iota + 1
	KindUnknownKey
	KindSignatureInvalid
	KindClaimInvalid
	KindUpstreamUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindBadFormat:
		return "bad_format"
	case KindUnknownKey:
		return "unknown_key"
	case KindSignatureInvalid:
		return "signature_invalid"
	case KindClaimInvalid:
		return "claim_invalid"
	case KindUpstreamUnavailable:
		return "upstream_unavailable"
	default:
		return "unknown"
	}
}

// VerifyError is returned for every rejected token.
// errors.Is(err, auth.ErrUnauthorized) holds for every kind.
type VerifyError struct {
	Kind   Kind
	Reason string
	Cause  error
}

func (e *VerifyError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("jwks: %s: %s: %v", e.Kind, e.Reason, e.Cause)
	}
	return fmt.Sprintf("jwks: %s: %s", e.Kind, e.Reason)
}

func (e *VerifyError) Unwrap() error { return e.Cause }

// Is reports auth.ErrUnauthorized so callers can collapse all kinds at a boundary.
func (e *VerifyError) Is(target error) bool {
	return target == auth.ErrUnauthorized
}

func newError(kind Kind, reason string, cause error) *VerifyError {
	return &VerifyError{Kind: kind, Reason: reason, Cause: cause}
}

// KindOf returns the kind of a *VerifyError anywhere in err's chain.
func KindOf(err error) (Kind, bool) {
	var ve *VerifyError
	if errors.As(err, &ve) {
		return ve.Kind, true
	}
	return 0, false
}
