package security

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHasher_EncodeAndCompare(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	hash, err := h.Encode("Sesame1!")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if hash == "" || hash == "Sesame1!" || !strings.HasPrefix(hash, "$2") {
		t.Fatalf("Encode returned %q, want a bcrypt hash", hash)
	}
	if err := h.Compare(hash, "Sesame1!"); err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if err := h.Compare(hash, "sesame1!"); err == nil {
		t.Fatal("Compare with wrong password should fail")
	}
}

func TestHasher_Cost(t *testing.T) {
	if h := NewHasher(12); h.Cost != 12 {
		t.Errorf("Cost want 12, got %d", h.Cost)
	}
	if h := NewHasher(0); h.Cost != bcrypt.DefaultCost {
		t.Errorf("zero cost want DefaultCost, got %d", h.Cost)
	}
	if h := NewHasher(2); h.Cost != bcrypt.MinCost {
		t.Errorf("low cost want MinCost, got %d", h.Cost)
	}
	if h := NewHasher(99); h.Cost != bcrypt.MaxCost {
		t.Errorf("high cost want MaxCost, got %d", h.Cost)
	}
}
