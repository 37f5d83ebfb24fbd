package auth

import (
	"errors"
	"testing"
	"time"
)

func TestGenerateAndValidate(t *testing.T) {
	m, err := NewJWTManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}

	token, err := m.Generate("drgomez", "odontologia")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if claims.UserID != "drgomez" || claims.Specialty != "odontologia" || claims.Subject != "drgomez" {
		t.Errorf("claims = %+v", claims)
	}
	if claims.ID == "" {
		t.Error("expected a token id")
	}

	other, err := m.Generate("drgomez", "odontologia")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if other == token {
		t.Error("expected distinct tokens for separate sessions")
	}
}

func TestValidateRejects(t *testing.T) {
	m, _ := NewJWTManager("test-secret", time.Hour)
	other, _ := NewJWTManager("another-secret", time.Hour)
	foreign, err := other.Generate("ana", "")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	expired, _ := NewJWTManager("test-secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.Generate("ana", "")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	tests := []struct {
		name     string
		token    string
		expected error
	}{
		{"empty", "", ErrMissingToken},
		{"garbage", "not.a.token", ErrInvalidToken},
		{"wrong secret", foreign, ErrInvalidToken},
		{"expired", old, ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.Validate(tt.token); !errors.Is(err, tt.expected) {
				t.Errorf("Validate() error = %v, expected %v", err, tt.expected)
			}
		})
	}
}

func TestNewJWTManagerRequiresSecret(t *testing.T) {
	if _, err := NewJWTManager("", time.Hour); !errors.Is(err, ErrNoSecret) {
		t.Errorf("NewJWTManager() error = %v", err)
	}
}
