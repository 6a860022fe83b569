package errors

import (
	"bytes"
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(EUsage, "test message")

	if err.Error() != "E_USAGE: test message" {
		t.Errorf("Error() = %q, want %q", err.Error(), "E_USAGE: test message")
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying")
	err := Wrap(EIO, "wrapped message", cause)

	if err.Error() != "E_IO: wrapped message" {
		t.Errorf("Error() = %q, want %q", err.Error(), "E_IO: wrapped message")
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is did not find cause")
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"nil error", nil, ""},
		{"ceres error", New(EUsage, "x"), EUsage},
		{"wrapped ceres error", Wrap(EGeneratorFailed, "y", errors.New("z")), EGeneratorFailed},
		{"non-ceres error", errors.New("plain"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetCode(tt.err)
			if got != tt.want {
				t.Errorf("GetCode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"E_USAGE", New(EUsage, "x"), 2},
		{"E_TOOLCHAIN_MISSING", New(EToolchainMissing, "x"), 1},
		{"non-ceres error", errors.New("x"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExitCode(tt.err)
			if got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPrint(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain", errors.New("boom"), "boom\n"},
		{"E_USAGE", New(EUsage, "bad args"), "error_code: E_USAGE\nbad args\n"},
		{
			"cause and sorted details",
			WrapWithDetails(EIO, "failed to read manifest", errors.New("permission denied"),
				map[string]string{"stage": "ManifestsPatched", "path": "/x/Cargo.toml"}),
			"error_code: E_IO\nfailed to read manifest\ncause: permission denied\npath: /x/Cargo.toml\nstage: ManifestsPatched\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Print(&buf, tt.err)
			got := buf.String()
			if got != tt.want {
				t.Errorf("Print() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewWithDetails_DefensiveCopy(t *testing.T) {
	details := map[string]string{"key": "value"}
	err := NewWithDetails(EUsage, "test", details)

	details["key"] = "modified"

	ce, ok := AsCeresError(err)
	if !ok {
		t.Fatal("AsCeresError failed")
	}
	if ce.Details["key"] != "value" {
		t.Errorf("Details should be copied, got %q", ce.Details["key"])
	}
}

func TestNewWithDetails_NilDetails(t *testing.T) {
	err := NewWithDetails(EUsage, "test", nil)

	ce, ok := AsCeresError(err)
	if !ok {
		t.Fatal("AsCeresError failed")
	}
	if ce.Details != nil {
		t.Errorf("Details should be nil, got %v", ce.Details)
	}
}

func TestWithDetail(t *testing.T) {
	t.Run("adds key to ceres error", func(t *testing.T) {
		err := WithDetail(New(EIO, "x"), "stage", "TemplateInstantiated")
		ce, ok := AsCeresError(err)
		if !ok {
			t.Fatal("expected CeresError")
		}
		if ce.Code != EIO {
			t.Errorf("Code = %q, want %q", ce.Code, EIO)
		}
		if ce.Details["stage"] != "TemplateInstantiated" {
			t.Errorf("Details[stage] = %q", ce.Details["stage"])
		}
	})

	t.Run("keeps existing key", func(t *testing.T) {
		orig := NewWithDetails(EIO, "x", map[string]string{"stage": "first"})
		err := WithDetail(orig, "stage", "second")
		ce, _ := AsCeresError(err)
		if ce.Details["stage"] != "first" {
			t.Errorf("Details[stage] = %q, want first", ce.Details["stage"])
		}
	})

	t.Run("wraps plain error as internal", func(t *testing.T) {
		cause := errors.New("plain")
		err := WithDetail(cause, "stage", "Done")
		if GetCode(err) != EInternal {
			t.Errorf("code = %q, want %q", GetCode(err), EInternal)
		}
		if !errors.Is(err, cause) {
			t.Error("cause lost")
		}
	})

	t.Run("nil stays nil", func(t *testing.T) {
		if WithDetail(nil, "k", "v") != nil {
			t.Error("expected nil")
		}
	})
}

func TestAsCeresError(t *testing.T) {
	t.Run("non ceres error", func(t *testing.T) {
		ce, ok := AsCeresError(errors.New("regular error"))
		if ok || ce != nil {
			t.Error("should return nil, false for non-CeresError")
		}
	})

	t.Run("nil error", func(t *testing.T) {
		ce, ok := AsCeresError(nil)
		if ok || ce != nil {
			t.Error("should return nil, false for nil")
		}
	})
}
