package services

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapTagsMarkerAndDetail(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrNavigation, "workflow", "load detail page", "item unreachable", cause)
	if !errors.Is(err, ErrNavigation) {
		t.Fatalf("expected ErrNavigation marker, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to survive, got %v", err)
	}
	for _, fragment := range []string{"workflow", "load detail page", "item unreachable"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("expected %q in error message, got %q", fragment, err.Error())
		}
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "browser", "click", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected transient default, got %v", err)
	}
}

func TestIsFatal(t *testing.T) {
	if !IsFatal(Wrap(ErrDriverInit, "browser", "launch", "", nil)) {
		t.Fatal("driver init should be fatal")
	}
	if !IsFatal(Wrap(ErrAuthentication, "browser", "login", "", nil)) {
		t.Fatal("authentication should be fatal")
	}
	if IsFatal(Wrap(ErrElementNotFound, "resolver", "subtitle control", "", nil)) {
		t.Fatal("element not found must not abort the run")
	}
	if IsFatal(nil) {
		t.Fatal("nil error is not fatal")
	}
}

func TestErrorKind(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{Wrap(ErrDriverInit, "browser", "launch", "", nil), "DriverInitError"},
		{Wrap(ErrAuthentication, "browser", "login", "", nil), "AuthenticationError"},
		{Wrap(ErrNavigation, "workflow", "navigate", "", nil), "NavigationError"},
		{Wrap(ErrElementNotFound, "resolver", "resolve", "", nil), "ElementNotFound"},
		{Wrap(ErrNoResults, "workflow", "collect", "", nil), "NoResultsFound"},
		{Wrap(ErrDownloadTimeout, "workflow", "confirm", "", nil), "DownloadTimeout"},
		{errors.New("unlabeled"), "TransientError"},
	}
	for _, tc := range cases {
		if got := ErrorKind(tc.err); got != tc.want {
			t.Fatalf("ErrorKind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
