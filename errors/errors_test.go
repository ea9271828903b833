package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_New_Success(t *testing.T) {
	err := New(ErrCodeNotFound, "not found", http.StatusNotFound)
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}
	if err.HTTPStatus != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, err.HTTPStatus)
	}
	if err.Retryable {
		t.Error("NOT_FOUND should not be retryable")
	}
}

func TestAppError_New_Retryable(t *testing.T) {
	err := New(ErrCodeUpstreamUnavailable, "jwks down", http.StatusServiceUnavailable)
	if !err.Retryable {
		t.Error("UPSTREAM_UNAVAILABLE should be retryable")
	}
}

func TestAppError_Unauthorized_DefaultMessage(t *testing.T) {
	err := Unauthorized("")
	if err.Code != ErrCodeUnauthorized {
		t.Errorf("expected UNAUTHORIZED, got %s", err.Code)
	}
	if err.HTTPStatus != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", err.HTTPStatus)
	}
	if err.Message != "Unauthorized" {
		t.Errorf("expected default message, got %q", err.Message)
	}
}

func TestAppError_Conflict_Success(t *testing.T) {
	err := Conflict("Email already registered")
	if err.HTTPStatus != http.StatusConflict {
		t.Errorf("expected 409, got %d", err.HTTPStatus)
	}
	if err.Message != "Email already registered" {
		t.Errorf("unexpected message %q", err.Message)
	}
}

func TestAppError_BadRequest_Success(t *testing.T) {
	err := BadRequest("")
	if err.Code != ErrCodeBadRequest || err.HTTPStatus != http.StatusBadRequest {
		t.Errorf("expected BAD_REQUEST/400, got %s/%d", err.Code, err.HTTPStatus)
	}
}

func TestAppError_UpstreamUnavailable_Success(t *testing.T) {
	cause := fmt.Errorf("dial tcp: i/o timeout")
	err := UpstreamUnavailable("identity provider", cause)
	if err.HTTPStatus != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", err.HTTPStatus)
	}
	if !err.Retryable {
		t.Error("expected retryable")
	}
	if err.Details["service"] != "identity provider" {
		t.Errorf("expected service detail, got %v", err.Details["service"])
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected cause to be unwrappable")
	}
}

func TestAppError_Internal_Success(t *testing.T) {
	cause := fmt.Errorf("dynamodb: throttled")
	err := Internal(cause)
	if err.Code != ErrCodeInternal {
		t.Errorf("expected INTERNAL_ERROR, got %s", err.Code)
	}
	if err.Cause != cause {
		t.Error("expected cause to be set")
	}
	if err.Retryable {
		t.Error("Internal should not be retryable")
	}
}

func TestAppError_Error_IncludesCause(t *testing.T) {
	err := Internal(fmt.Errorf("boom"))
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("expected cause in message, got %q", err.Error())
	}
	plain := Unauthorized("")
	if plain.Error() != "UNAUTHORIZED: Unauthorized" {
		t.Errorf("unexpected message %q", plain.Error())
	}
}

func TestAppError_WithDetail(t *testing.T) {
	err := BadRequest("bad").WithDetail("field", "email")
	if err.Details["field"] != "email" {
		t.Errorf("expected field detail, got %v", err.Details)
	}
}

func TestAppError_ToResponse_HidesCause(t *testing.T) {
	err := Internal(fmt.Errorf("secret table name"))
	data, marshalErr := json.Marshal(err.ToResponse())
	if marshalErr != nil {
		t.Fatalf("marshal: %v", marshalErr)
	}
	if strings.Contains(string(data), "secret table name") {
		t.Errorf("cause leaked into response: %s", data)
	}
	if !strings.Contains(string(data), `"code":"INTERNAL_ERROR"`) {
		t.Errorf("expected code in response: %s", data)
	}
}

func TestAsAppError(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", Conflict("taken"))
	appErr, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("expected AppError to be found")
	}
	if appErr.Code != ErrCodeConflict {
		t.Errorf("expected CONFLICT, got %s", appErr.Code)
	}
	if _, ok := AsAppError(fmt.Errorf("plain")); ok {
		t.Error("expected plain error not to be an AppError")
	}
}

func TestFrom_WrapsUnknownAsInternal(t *testing.T) {
	appErr := From(fmt.Errorf("plain"))
	if appErr.Code != ErrCodeInternal {
		t.Errorf("expected INTERNAL_ERROR, got %s", appErr.Code)
	}
	same := Unauthorized("")
	if From(same) != same {
		t.Error("expected AppError to pass through unchanged")
	}
}
