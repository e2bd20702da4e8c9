package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindStatusAndCode(t *testing.T) {
	tests := []struct {
		name   string
		kind   Kind
		status int
		code   string
	}{
		{"validation", KindValidation, http.StatusBadRequest, "validation_error"},
		{"auth", KindAuth, http.StatusUnauthorized, "unauthorized"},
		{"authorization", KindAuthorization, http.StatusForbidden, "forbidden"},
		{"not found", KindNotFound, http.StatusNotFound, "not_found"},
		{"rate limited", KindRateLimited, http.StatusTooManyRequests, "rate_limited"},
		{"dependency", KindDependency, http.StatusInternalServerError, "dependency_unavailable"},
		{"integrity", KindIntegrity, http.StatusInternalServerError, "integrity_fault"},
		{"unavailable", KindUnavailable, http.StatusServiceUnavailable, "service_unavailable"},
		{"internal", KindInternal, http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.kind.Status(); got != tt.status {
				t.Errorf("Status() = %d, want %d", got, tt.status)
			}
			if got := tt.kind.Code(); got != tt.code {
				t.Errorf("Code() = %q, want %q", got, tt.code)
			}
		})
	}
}

func TestKindOfWrapped(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("load session: %w", Dependency(cause, "session store unavailable"))

	if KindOf(err) != KindDependency {
		t.Fatalf("KindOf() = %v, want KindDependency", KindOf(err))
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to stay reachable through Unwrap")
	}
	if !Is(err, KindDependency) {
		t.Error("Is(err, KindDependency) = false")
	}
	if KindOf(errors.New("plain")) != KindInternal {
		t.Error("plain errors should classify as internal")
	}
}

func TestWithDetail(t *testing.T) {
	err := Authorization("another session is active").WithDetail("active_session_ip", "10.0.0.1")
	if err.Details["active_session_ip"] != "10.0.0.1" {
		t.Errorf("detail not stored: %v", err.Details)
	}
	if err.Error() != "another session is active" {
		t.Errorf("Error() = %q", err.Error())
	}
}
