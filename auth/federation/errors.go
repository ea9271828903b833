package federation

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a failed federated sign-in.
type Kind int

const (
	KindProvisioningFailed Kind = iota + 1
	KindConfigurationFailed
	KindNoSession
	KindNoAuthResult
	KindUpstreamUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindProvisioningFailed:
		return "provisioning_failed"
	case KindConfigurationFailed:
		return "configuration_failed"
	case KindNoSession:
		return "no_session"
	case KindNoAuthResult:
		return "no_auth_result"
	case KindUpstreamUnavailable:
		return "upstream_unavailable"
	default:
		return "unknown"
	}
}

// Step names the provider call that failed.
type Step string

const (
	StepCreateUser   Step = "admin_create_user"
	StepSetPassword  Step = "admin_set_user_password"
	StepInitiateAuth Step = "admin_initiate_auth"
	StepRespond      Step = "admin_respond_to_auth_challenge"
)

// Error is returned by Bridge.SignInViaIdentity.
type Error struct {
	Kind  Kind
	Step  Step
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("federation: %s at %s: %v", e.Kind, e.Step, e.Cause)
	}
	return fmt.Sprintf("federation: %s at %s", e.Kind, e.Step)
}

func (e *Error) Unwrap() error { return e.Cause }

// stepError classifies cause, promoting deadlines and cancellation to
// KindUpstreamUnavailable regardless of the step's own kind.
func stepError(kind Kind, step Step, cause error) *Error {
	if errors.Is(cause, context.DeadlineExceeded) || errors.Is(cause, context.Canceled) {
		kind = KindUpstreamUnavailable
	}
	return &Error{Kind: kind, Step: step, Cause: cause}
}

// KindOf returns the kind of an *Error anywhere in err's chain.
func KindOf(err error) (Kind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return 0, false
}
