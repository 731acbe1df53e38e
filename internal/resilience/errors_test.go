package resilience

import (
	"errors"
	"fmt"
	"io"
	"syscall"
	"testing"

	"github.com/rotisserie/eris"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "deadline" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"explicit", NewTransientError(errors.New("x"), 503), true},
		{"wrapped explicit", eris.Wrap(NewTransientError(errors.New("x"), 429), "staticmaps: fetch"), true},
		{"net timeout", fmt.Errorf("get: %w", timeoutErr{}), true},
		{"conn reset", fmt.Errorf("read: %w", syscall.ECONNRESET), true},
		{"conn refused", syscall.ECONNREFUSED, true},
		{"message pattern", errors.New("read tcp: i/o timeout"), true},
		{"unexpected eof", fmt.Errorf("body: %w", io.ErrUnexpectedEOF), true},
		{"permanent", errors.New("400 bad request"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		if !IsTransientHTTPStatus(code) {
			t.Errorf("%d should be transient", code)
		}
	}
	for _, code := range []int{200, 400, 401, 403, 404} {
		if IsTransientHTTPStatus(code) {
			t.Errorf("%d should not be transient", code)
		}
	}
}

func TestKind(t *testing.T) {
	if k := Kind(NewTransientError(errors.New("busy"), 503)); k != KindTransient {
		t.Errorf("got %q", k)
	}
	if k := Kind(errors.New("disk full")); k != KindPermanent {
		t.Errorf("got %q", k)
	}
}

func TestTransientError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	te := NewTransientError(inner, 500)
	if !errors.Is(te, inner) {
		t.Error("expected errors.Is to find inner error")
	}
	if te.Error() != "inner" {
		t.Errorf("unexpected message %q", te.Error())
	}
}
