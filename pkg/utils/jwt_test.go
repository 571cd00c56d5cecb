package utils

import (
	"testing"

	"github.com/maimang/backend/internal/models"
)

func TestGenerateAndValidateToken(t *testing.T) {
	ConfigureJWT("unit-test-secret", 1)

	user := &models.User{
		Email: "member@example.com",
		Role:  models.UserRoleMember,
	}
	user.ID = 42

	token, err := GenerateToken(user)
	if err != nil {
		t.Fatalf("failed generating token: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("failed validating token: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("expected user id 42, got %d", claims.UserID)
	}
	if claims.Email != user.Email {
		t.Errorf("expected email %q, got %q", user.Email, claims.Email)
	}
	if claims.Role != models.UserRoleMember {
		t.Errorf("expected member role, got %q", claims.Role)
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	ConfigureJWT("unit-test-secret", 1)

	if _, err := ValidateToken("not-a-token"); err == nil {
		t.Fatal("expected an error for a malformed token")
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	ConfigureJWT("first-secret", 1)

	user := &models.User{Email: "member@example.com", Role: models.UserRoleMember}
	user.ID = 1
	token, err := GenerateToken(user)
	if err != nil {
		t.Fatalf("failed generating token: %v", err)
	}

	ConfigureJWT("second-secret", 1)
	if _, err := ValidateToken(token); err == nil {
		t.Fatal("expected validation to fail after secret rotation")
	}
}
