package services_test

import (
	"errors"
	"strings"
	"testing"

	"diana/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	inner := errors.New("404 from proxy")
	err := services.Wrap(services.ErrNotFound, "orthanc", "get", "instance missing", inner)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatal("expected ErrNotFound marker")
	}
	if !errors.Is(err, inner) {
		t.Fatal("expected inner error preserved")
	}
	if !strings.Contains(err.Error(), "orthanc: get: instance missing") {
		t.Fatalf("unexpected detail: %v", err)
	}
}

func TestWrapNilMarkerDefaultsTransient(t *testing.T) {
	err := services.Wrap(nil, "orthanc", "find", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatal("expected ErrTransient fallback")
	}
}

func TestIsCounted(t *testing.T) {
	if !services.IsCounted(services.Wrap(services.ErrNotFound, "orthanc", "get", "", nil)) {
		t.Fatal("not-found should be counted")
	}
	if !services.IsCounted(services.Wrap(services.ErrNotStaged, "orthanc", "exists", "", nil)) {
		t.Fatal("not-staged should be counted")
	}
	if services.IsCounted(services.Wrap(services.ErrTransient, "orthanc", "get", "", nil)) {
		t.Fatal("transient should not be counted")
	}
}
