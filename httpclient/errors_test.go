package httpclient

import (
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	e := &Error{StatusCode: 404, Code: ErrCodeClient, Message: "Not Found"}
	if got, want := e.Error(), "httpclient: client (HTTP 404): Not Found"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	e2 := &Error{Code: ErrCodeConnection, Message: "connection refused"}
	if got, want := e2.Error(), "httpclient: connection: connection refused"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestClassifyStatusCode(t *testing.T) {
	tests := []struct {
		code    int
		wantNil bool
		errCode ErrorCode
	}{
		{200, true, 0},
		{204, true, 0},
		{400, false, ErrCodeClient},
		{404, false, ErrCodeClient},
		{429, false, ErrCodeClient},
		{500, false, ErrCodeServer},
		{503, false, ErrCodeServer},
	}
	for _, tt := range tests {
		e := ClassifyStatusCode(tt.code, nil)
		if tt.wantNil {
			if e != nil {
				t.Errorf("ClassifyStatusCode(%d): expected nil, got %v", tt.code, e)
			}
			continue
		}
		if e == nil || e.Code != tt.errCode {
			t.Errorf("ClassifyStatusCode(%d): got %v, want code %v", tt.code, e, tt.errCode)
		}
	}
}

func TestIsUnavailable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"timeout", NewTimeoutError(fmt.Errorf("deadline")), true},
		{"connection", NewConnectionError(fmt.Errorf("refused")), true},
		{"server", ClassifyStatusCode(502, nil), true},
		{"client", ClassifyStatusCode(404, nil), false},
		{"invalid", NewValidationError("bad"), false},
		{"foreign", fmt.Errorf("other"), false},
		{"wrapped timeout", fmt.Errorf("jwks: %w", NewTimeoutError(fmt.Errorf("deadline"))), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsUnavailable(tc.err); got != tc.want {
				t.Errorf("IsUnavailable = %v, want %v", got, tc.want)
			}
		})
	}
}
