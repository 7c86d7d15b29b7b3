package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Fatal: abort the entire run, never retried automatically.
	ErrDriverInit     = errors.New("driver init error")
	ErrAuthentication = errors.New("authentication error")

	// Per-item recoverable: isolated to the offending item.
	ErrNavigation      = errors.New("navigation error")
	ErrElementNotFound = errors.New("element not found")
	ErrNoResults       = errors.New("no results found")
	ErrDownloadTimeout = errors.New("download timeout")

	// ErrTransient tags conditions worth retrying before they are
	// reclassified as one of the recoverable kinds above.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later outcome classification. The marker
// should be one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether an error must abort the whole run rather than
// just the current item.
func IsFatal(err error) bool {
	return errors.Is(err, ErrDriverInit) || errors.Is(err, ErrAuthentication)
}

// IsTransient reports whether an error is tagged for bounded retry.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// ErrorKind maps an error to the short kind string recorded in outcome
// records and rendered in reports.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDriverInit):
		return "DriverInitError"
	case errors.Is(err, ErrAuthentication):
		return "AuthenticationError"
	case errors.Is(err, ErrNavigation):
		return "NavigationError"
	case errors.Is(err, ErrElementNotFound):
		return "ElementNotFound"
	case errors.Is(err, ErrNoResults):
		return "NoResultsFound"
	case errors.Is(err, ErrDownloadTimeout):
		return "DownloadTimeout"
	default:
		return "TransientError"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
