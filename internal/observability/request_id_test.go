package observability

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestNewRequestIDReturnsUUID(t *testing.T) {
	id := NewRequestID()
	if id == "" {
		t.Fatal("expected non-empty request id")
	}

	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("expected valid UUID, got %q: %v", id, err)
	}
}

func TestRequestIDContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	want := "abc-123"

	ctx = ContextWithRequestID(ctx, want)
	got := RequestIDFromContext(ctx)

	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestRequestIDFromContextWhenMissingOrWrongType(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		got := RequestIDFromContext(context.Background())
		if got != "" {
			t.Fatalf("expected empty string, got %q", got)
		}
	})

	t.Run("wrong type", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), RequestIDKey, 42)
		got := RequestIDFromContext(ctx)
		if got != "" {
			t.Fatalf("expected empty string, got %q", got)
		}
	})
}

func TestRequestIDFromHeaderNormalisesUUID(t *testing.T) {
	upper := "6BA7B810-9DAD-11D1-80B4-00C04FD430C8"

	got, ok := requestIDFromHeader(upper)
	if !ok {
		t.Fatalf("expected %q to be accepted", upper)
	}
	if got != "6ba7b810-9dad-11d1-80b4-00c04fd430c8" {
		t.Fatalf("expected lower-case canonical form, got %q", got)
	}

	if _, ok := requestIDFromHeader("req-1"); ok {
		t.Fatal("expected non-UUID header to be rejected")
	}
}
