package engineerr

import (
	"fmt"
	"testing"
)

func TestErrorMessageIncludesSubject(t *testing.T) {
	err := Newf(NotFound, "inode-7", "no such version %d", 3)
	want := "NotFound: no such version 3 (inode-7)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestErrorMessageWithoutSubject(t *testing.T) {
	err := New(InvalidArgument, "negative offset")
	want := "InvalidArgument: negative offset"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestIsMatchesKind(t *testing.T) {
	err := New(Busy, "root directory in use")
	if !Is(err, Busy) {
		t.Error("Is(err, Busy) should be true")
	}
	if Is(err, NotFound) {
		t.Error("Is(err, NotFound) should be false")
	}
}

func TestIsFalseForNonEngineError(t *testing.T) {
	if Is(fmt.Errorf("plain error"), NotFound) {
		t.Error("Is should be false for a non-*Error")
	}
}

func TestUnknownKindStringDoesNotPanic(t *testing.T) {
	var k Kind = 99
	if k.String() == "" {
		t.Error("String() should never return empty")
	}
}
