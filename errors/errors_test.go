package errors

import (
	"fmt"
	"testing"
)

func TestShellError(t *testing.T) {
	// Test basic error creation
	err := New(ErrCodeDocumentCorrupt, "document corrupt")
	if err.Code != ErrCodeDocumentCorrupt {
		t.Errorf("expected code %s, got %s", ErrCodeDocumentCorrupt, err.Code)
	}

	// Test error wrapping
	cause := fmt.Errorf("underlying error")
	wrapped := Wrap(cause, ErrCodeCommandFailed, "command failed")

	if wrapped.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}

	// Test Is function
	if !Is(wrapped, ErrCodeCommandFailed) {
		t.Error("Is should return true for matching code")
	}

	if Is(wrapped, ErrCodeStorageUnavailable) {
		t.Error("Is should return false for non-matching code")
	}

	// Test WithDetail
	detailed := err.WithDetail("document", "window_settings.json").WithDetail("size", 12)
	if detailed.Details["document"] != "window_settings.json" {
		t.Error("WithDetail should add details")
	}
}

func TestErrorConstructors(t *testing.T) {
	// Test StorageUnavailable
	err := StorageUnavailable("/tmp/login_data", fmt.Errorf("permission denied"))
	if err.Code != ErrCodeStorageUnavailable {
		t.Errorf("expected code %s, got %s", ErrCodeStorageUnavailable, err.Code)
	}
	if err.Details["path"] != "/tmp/login_data" {
		t.Error("StorageUnavailable should include path detail")
	}

	// Test CommandTimeout
	err = CommandTimeout("systemctl --user restart pipewire", "30s")
	if err.Code != ErrCodeCommandTimeout {
		t.Errorf("expected code %s, got %s", ErrCodeCommandTimeout, err.Code)
	}
	if err.Details["timeout"] != "30s" {
		t.Error("CommandTimeout should include timeout detail")
	}

	// Test RestartInFlight
	err = RestartInFlight()
	if err.Code != ErrCodeRestartInFlight {
		t.Errorf("expected code %s, got %s", ErrCodeRestartInFlight, err.Code)
	}
}
