// Package errors defines the stable error code system for ceres.
package errors

import (
	"errors"
	"fmt"
	"io"
	"sort"
)

// Code is a stable error code string.
type Code string

// Error codes. Printed on stderr and relied on by scripts wrapping ceres.
const (
	EUsage    Code = "E_USAGE"
	EInternal Code = "E_INTERNAL"

	// Environment errors
	EToolchainMissing Code = "E_TOOLCHAIN_MISSING"
	ENotProject       Code = "E_NOT_PROJECT"
	EProjectExists    Code = "E_PROJECT_EXISTS"
	EOutputExists     Code = "E_OUTPUT_EXISTS"
	EUserCodeMissing  Code = "E_USER_CODE_MISSING"
	ELocked           Code = "E_LOCKED"
	ENoRepo           Code = "E_NO_REPO"
	EConfigInvalid    Code = "E_CONFIG_INVALID"

	// External process errors
	EGeneratorFailed Code = "E_GENERATOR_FAILED"
	EBuildFailed     Code = "E_BUILD_FAILED"

	// I/O and content errors
	EIO                   Code = "E_IO"
	EManifestInvalid      Code = "E_MANIFEST_INVALID"
	EMarkerOrder          Code = "E_MARKER_ORDER"
	EPatchTargetNotFound  Code = "E_PATCH_TARGET_NOT_FOUND"
	EPatchTargetAmbiguous Code = "E_PATCH_TARGET_AMBIGUOUS"
	EUnbalancedBlock      Code = "E_UNBALANCED_BLOCK"
	EFetchFailed          Code = "E_FETCH_FAILED"
	EPRInvalid            Code = "E_PR_INVALID"
)

// CeresError is the standard error type for ceres errors.
type CeresError struct {
	Code    Code
	Msg     string
	Cause   error
	Details map[string]string // optional structured context
}

// Error returns the stable error format: "CODE: message".
func (e *CeresError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *CeresError) Unwrap() error {
	return e.Cause
}

// New creates a new CeresError with the given code and message.
func New(code Code, msg string) error {
	return &CeresError{Code: code, Msg: msg}
}

// Newf is New with a format string.
func Newf(code Code, format string, args ...any) error {
	return &CeresError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// NewWithDetails creates a new CeresError with code, message, and details.
// The details map is copied (nil if empty).
func NewWithDetails(code Code, msg string, details map[string]string) error {
	return &CeresError{Code: code, Msg: msg, Details: copyDetails(details)}
}

// Wrap creates a new CeresError wrapping an underlying error.
func Wrap(code Code, msg string, err error) error {
	return &CeresError{Code: code, Msg: msg, Cause: err}
}

// WrapWithDetails creates a new CeresError wrapping an underlying error with details.
// The details map is copied (nil if empty).
func WrapWithDetails(code Code, msg string, err error, details map[string]string) error {
	return &CeresError{Code: code, Msg: msg, Cause: err, Details: copyDetails(details)}
}

// WithDetail returns err with key=value merged into its details.
// Non-CeresErrors are wrapped as E_INTERNAL first. Existing keys are kept.
func WithDetail(err error, key, value string) error {
	if err == nil {
		return nil
	}
	ce, ok := AsCeresError(err)
	if !ok {
		return WrapWithDetails(EInternal, "internal error", err, map[string]string{key: value})
	}
	if _, exists := ce.Details[key]; exists {
		return err
	}
	details := copyDetails(ce.Details)
	if details == nil {
		details = make(map[string]string, 1)
	}
	details[key] = value
	return &CeresError{Code: ce.Code, Msg: ce.Msg, Cause: ce.Cause, Details: details}
}

// GetCode extracts the error code from an error, or empty string if not a CeresError.
func GetCode(err error) Code {
	var ce *CeresError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// AsCeresError returns (*CeresError, true) if err is or wraps a CeresError.
func AsCeresError(err error) (*CeresError, bool) {
	var ce *CeresError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

func copyDetails(details map[string]string) map[string]string {
	if len(details) == 0 {
		return nil
	}
	cp := make(map[string]string, len(details))
	for k, v := range details {
		cp[k] = v
	}
	return cp
}

// ExitCode returns the appropriate exit code for an error.
// Returns 0 if err is nil, 2 for E_USAGE, 1 for all other errors.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if GetCode(err) == EUsage {
		return 2
	}
	return 1
}

// Print writes the error to w in the stable stderr format:
//
//	error_code: <CODE>
//	<message>
//	cause: <underlying error>
//	<key>: <value>
//
// The cause and detail lines are only present when set. Detail keys are sorted.
func Print(w io.Writer, err error) {
	if err == nil {
		return
	}
	var ce *CeresError
	if !errors.As(err, &ce) {
		fmt.Fprintln(w, err.Error())
		return
	}
	fmt.Fprintf(w, "error_code: %s\n", ce.Code)
	fmt.Fprintln(w, ce.Msg)
	if ce.Cause != nil {
		fmt.Fprintf(w, "cause: %s\n", ce.Cause)
	}
	keys := make([]string, 0, len(ce.Details))
	for k := range ce.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s: %s\n", k, ce.Details[k])
	}
}
