package domain

import (
	"errors"
	"testing"
)

func TestNormalizeIdentity(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Identity
	}{
		{"already canonical", "alice@x.com", "alice@x.com"},
		{"uppercase", "ALICE@X.COM", "alice@x.com"},
		{"surrounding whitespace", "  alice@x.com \t", "alice@x.com"},
		{"mixed", " Alice@X.com\n", "alice@x.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeIdentity(tt.raw)
			if err != nil {
				t.Fatalf("NormalizeIdentity(%q) returned error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeIdentity(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdentityEmpty(t *testing.T) {
	for _, raw := range []string{"", "   ", "\t\n"} {
		if _, err := NormalizeIdentity(raw); !errors.Is(err, ErrInvalidIdentity) {
			t.Errorf("NormalizeIdentity(%q) error = %v, want ErrInvalidIdentity", raw, err)
		}
	}
}
