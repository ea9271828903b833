package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"

	"github.com/ovaflus/ovaflus-auth/logger"
)

type fakeSSM struct {
	params map[string]string
	calls  []string
	err    error
}

func (f *fakeSSM) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	name := aws.ToString(in.Name)
	f.calls = append(f.calls, name)
	if !aws.ToBool(in.WithDecryption) {
		return nil, errors.New("expected decryption")
	}
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.params[name]
	if !ok {
		return nil, &types.ParameterNotFound{Message: aws.String(name)}
	}
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{Name: in.Name, Value: aws.String(v)}}, nil
}

func newTestResolver(params map[string]string) (*Resolver, *fakeSSM) {
	api := &fakeSSM{params: params}
	return NewResolver(api, Config{Prefix: "/ovaflus/test/"}, logger.Nop()), api
}

func TestResolver_Resolve(t *testing.T) {
	r, api := newTestResolver(map[string]string{
		"/ovaflus/test/nonce_secret": "nonce-value",
		"/shared/jwt-secret":         "jwt-value",
	})
	ctx := context.Background()

	tests := map[string]string{
		"plain-value":            "plain-value",
		"ssm:nonce_secret":       "nonce-value",
		"ssm:/shared/jwt-secret": "jwt-value",
	}
	for in, want := range tests {
		got, err := r.Resolve(ctx, in)
		if err != nil {
			t.Fatalf("Resolve(%q) failed: %v", in, err)
		}
		if got != want {
			t.Errorf("Resolve(%q) = %q, want %q", in, got, want)
		}
	}
	if len(api.calls) != 2 {
		t.Errorf("expected plain values to skip SSM, got calls %v", api.calls)
	}
}

func TestResolver_Resolve_Cached(t *testing.T) {
	r, api := newTestResolver(map[string]string{"/ovaflus/test/a": "1"})
	for i := 0; i < 3; i++ {
		if _, err := r.Resolve(context.Background(), "ssm:a"); err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
	}
	if len(api.calls) != 1 {
		t.Errorf("expected one SSM call, got %d", len(api.calls))
	}
}

func TestResolver_Resolve_NotFound(t *testing.T) {
	r, _ := newTestResolver(nil)
	_, err := r.Resolve(context.Background(), "ssm:missing")
	if !errors.Is(err, ErrParameterNotFound) {
		t.Fatalf("expected ErrParameterNotFound, got %v", err)
	}
}

func TestResolver_Resolve_APIError(t *testing.T) {
	r, api := newTestResolver(nil)
	api.err = errors.New("access denied")
	_, err := r.Resolve(context.Background(), "ssm:x")
	if err == nil || errors.Is(err, ErrParameterNotFound) {
		t.Fatalf("expected API error, got %v", err)
	}
}

func TestResolver_ResolveAll(t *testing.T) {
	r, _ := newTestResolver(map[string]string{"/ovaflus/test/jwt-secret": "s3cret"})
	jwtSecret, clientID, missing := "ssm:jwt-secret", "literal", "ssm:nope"

	err := r.ResolveAll(context.Background(), &jwtSecret, &clientID, nil, &missing)
	if !errors.Is(err, ErrParameterNotFound) {
		t.Errorf("expected joined not found error, got %v", err)
	}
	if jwtSecret != "s3cret" || clientID != "literal" {
		t.Errorf("unexpected values %q %q", jwtSecret, clientID)
	}
	if missing != "ssm:nope" {
		t.Errorf("expected unresolved reference to stay, got %q", missing)
	}
}

func TestHasReferences(t *testing.T) {
	if HasReferences("a", "b") {
		t.Error("expected no references")
	}
	if !HasReferences("a", "ssm:b") {
		t.Error("expected a reference")
	}
}
