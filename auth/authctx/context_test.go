package authctx

import (
	"context"
	"errors"
	"testing"

	"github.com/ovaflus/ovaflus-auth/auth"
)

func TestSetGet(t *testing.T) {
	claims := &auth.Claims{Subject: "u-1", TokenClass: auth.ClassAccess}
	ctx := Set(context.Background(), claims)

	got, ok := Get(ctx)
	if !ok || got != claims {
		t.Fatalf("expected stored claims, got %v %v", got, ok)
	}
	sub, err := Subject(ctx)
	if err != nil || sub != "u-1" {
		t.Errorf("Subject = %q, %v", sub, err)
	}
}

func TestGet_Missing(t *testing.T) {
	if _, ok := Get(context.Background()); ok {
		t.Error("expected no claims")
	}
	if _, ok := Get(Set(context.Background(), nil)); ok {
		t.Error("expected nil claims to count as missing")
	}
	if _, err := Subject(context.Background()); !errors.Is(err, ErrNoClaims) {
		t.Errorf("expected ErrNoClaims, got %v", err)
	}
}
