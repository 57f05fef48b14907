package qerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewNilPassthrough(t *testing.T) {
	if err := New(CodeUpstream, nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestIsCodeThroughWrapping(t *testing.T) {
	base := errors.New("boom")
	err := fmt.Errorf("recording meal: %w", New(CodeTooManyEntries, base))

	if !IsCode(err, CodeTooManyEntries) {
		t.Fatalf("expected code %s on %v", CodeTooManyEntries, err)
	}
	if IsCode(err, CodeInvalidInput) {
		t.Fatalf("unexpected code match")
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected underlying error to be reachable")
	}
}

func TestCodeOfUncoded(t *testing.T) {
	if got := CodeOf(errors.New("plain")); got != CodeUnknown {
		t.Fatalf("expected %s got %s", CodeUnknown, got)
	}
	if HasCode(errors.New("plain")) {
		t.Fatalf("plain error should not carry a code")
	}
}

func TestErrorString(t *testing.T) {
	err := Newf(CodeInvalidInput, "weight must be positive, got %d", -1)
	if got := err.Error(); got != "invalid_input: weight must be positive, got -1" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestMessageStripsCode(t *testing.T) {
	err := fmt.Errorf("record meal: %w", Newf(CodeTooManyEntries, "at most %d meals", 10))
	if got := Message(err); got != "at most 10 meals" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := Message(errors.New("plain")); got != "plain" {
		t.Fatalf("unexpected message %q", got)
	}
}
