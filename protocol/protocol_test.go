package protocol

import (
	"errors"
	"testing"
)

func TestError_Error(t *testing.T) {
	err := NewError(ErrCodeInvalidCert, "certificate unparseable")
	expected := "[40102] certificate unparseable"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewError(t *testing.T) {
	err := NewError(ErrCodeNoSuchState, "state expired")
	if err.Code != ErrCodeNoSuchState {
		t.Errorf("Code = %d, want %d", err.Code, ErrCodeNoSuchState)
	}
	if err.Message != "state expired" {
		t.Errorf("Message = %q, want %q", err.Message, "state expired")
	}
	if err.Details == nil {
		t.Error("Details should not be nil")
	}
}

func TestWrapError(t *testing.T) {
	originalErr := errors.New("connection refused")
	err := WrapError(ErrCodeDirectoryUnavail, originalErr)

	if err.Code != ErrCodeDirectoryUnavail {
		t.Errorf("Code = %d, want %d", err.Code, ErrCodeDirectoryUnavail)
	}
	if err.Message != originalErr.Error() {
		t.Errorf("Message = %q, want %q", err.Message, originalErr.Error())
	}
}

func TestError_WithDetails(t *testing.T) {
	err := NewError(ErrCodeCertMismatch, "stored certificate differs").
		WithDetails("entry_dn", "uid=alice,ou=people,dc=example,dc=com").
		WithDetails("attribute", "userCertificate;binary")

	if err.Details["entry_dn"] != "uid=alice,ou=people,dc=example,dc=com" {
		t.Error("entry_dn detail not set correctly")
	}
	if err.Details["attribute"] != "userCertificate;binary" {
		t.Error("attribute detail not set correctly")
	}
}

func TestError_HTTPStatus(t *testing.T) {
	tests := []struct {
		code   int
		status int
	}{
		{ErrCodeNoCertificate, 401},
		{ErrCodeInvalidCert, 401},
		{ErrCodeCertMismatch, 401},
		{ErrCodeMissingToken, 400},
		{ErrCodeNoSuchState, 404},
		{ErrCodeDirectoryUnavail, 503},
	}

	for _, tt := range tests {
		got := NewError(tt.code, "x").HTTPStatus()
		if got != tt.status {
			t.Errorf("HTTPStatus(%d) = %d, want %d", tt.code, got, tt.status)
		}
	}
}
