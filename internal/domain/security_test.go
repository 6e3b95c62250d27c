package domain

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if hash == "s3cret" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !VerifyPassword("s3cret", hash) {
		t.Error("correct password did not verify")
	}
	if VerifyPassword("wrong", hash) {
		t.Error("wrong password verified")
	}
}

func TestGenerateStarterPassword(t *testing.T) {
	first, err := GenerateStarterPassword()
	if err != nil {
		t.Fatalf("GenerateStarterPassword returned error: %v", err)
	}
	second, err := GenerateStarterPassword()
	if err != nil {
		t.Fatalf("GenerateStarterPassword returned error: %v", err)
	}
	if len(first) < 12 {
		t.Errorf("starter password length = %d, want at least 12", len(first))
	}
	if first == second {
		t.Error("two generated passwords were identical")
	}
}
