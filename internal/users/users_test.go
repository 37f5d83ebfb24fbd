package users

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iwvelando/consultorio/pkg/jsonfile"
	"github.com/iwvelando/consultorio/pkg/validation"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	return New(zap.NewNop(), filepath.Join(t.TempDir(), "usuarios.json"), 8,
		WithHashCost(bcrypt.MinCost),
		WithClock(func() time.Time { return time.Date(2025, time.April, 1, 10, 0, 0, 0, time.Local) }),
	)
}

func TestRegisterAndAuthenticate(t *testing.T) {
	r := newTestRegistry(t)

	profile, err := r.Register(Registration{Username: "drgomez", Password: "secreto123", Name: "Dra. Gómez", Specialty: "Dermatologia"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if profile.Specialty != "dermatologia" || profile.Plan != DefaultPlan {
		t.Errorf("profile = %+v", profile)
	}
	if !strings.HasPrefix(profile.PasswordHash, "$2") {
		t.Errorf("expected bcrypt hash, got %q", profile.PasswordHash)
	}

	got, err := r.Authenticate("drgomez", "secreto123")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if got.Name != "Dra. Gómez" {
		t.Errorf("Authenticate() = %+v", got)
	}

	if _, err := r.Authenticate("drgomez", "otra-clave"); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("wrong password error = %v", err)
	}
	if _, err := r.Authenticate("nadie", "secreto123"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown user error = %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	r := newTestRegistry(t)
	if _, err := r.Register(Registration{Username: "ana", Password: "12345678"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tests := []struct {
		name     string
		reg      Registration
		expected error
	}{
		{"duplicate", Registration{Username: "ana", Password: "12345678"}, ErrUserExists},
		{"short password", Registration{Username: "luis", Password: "1234"}, ErrWeakPassword},
		{"path in username", Registration{Username: "../root", Password: "12345678"}, validation.ErrInvalidInput},
		{"empty username", Registration{Username: "  ", Password: "12345678"}, validation.ErrInvalidInput},
		{"unknown specialty", Registration{Username: "luis", Password: "12345678", Specialty: "astrologia"}, validation.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.Register(tt.reg); !errors.Is(err, tt.expected) {
				t.Errorf("Register() error = %v, expected %v", err, tt.expected)
			}
		})
	}
}

func TestLegacyHashIsUpgraded(t *testing.T) {
	r := newTestRegistry(t)
	sum := sha256.Sum256([]byte("Homero123"))
	legacy := map[string]Profile{
		"admin": {PasswordHash: hex.EncodeToString(sum[:]), Name: "Dr. Administrador", Specialty: "odontologia", Plan: "premium"},
	}
	if err := jsonfile.Write(r.Path(), legacy); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if _, err := r.Authenticate("admin", "wrong"); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("wrong legacy password error = %v", err)
	}
	if _, err := r.Authenticate("admin", "Homero123"); err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}

	stored, err := r.Get("admin")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !strings.HasPrefix(stored.PasswordHash, "$2") {
		t.Errorf("expected hash to be upgraded, got %q", stored.PasswordHash)
	}
	if _, err := r.Authenticate("admin", "Homero123"); err != nil {
		t.Errorf("Authenticate() after upgrade error = %v", err)
	}
}

func TestSeedAdmin(t *testing.T) {
	r := newTestRegistry(t)
	created, err := r.SeedAdmin("admin", "cambiame123")
	if err != nil || !created {
		t.Fatalf("SeedAdmin() = %v, %v", created, err)
	}
	created, err = r.SeedAdmin("admin", "cambiame123")
	if err != nil || created {
		t.Errorf("second SeedAdmin() = %v, %v", created, err)
	}
	profile, err := r.Get("admin")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if profile.Plan != "premium" {
		t.Errorf("profile = %+v", profile)
	}
}

func TestCorruptUsersFile(t *testing.T) {
	r := newTestRegistry(t)
	if err := os.WriteFile(r.Path(), []byte("{nope"), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := r.Authenticate("admin", "x"); !errors.Is(err, ErrCorruptUsers) {
		t.Errorf("Authenticate() error = %v, expected ErrCorruptUsers", err)
	}
}

func TestPublicHidesHash(t *testing.T) {
	account := Profile{PasswordHash: "secret", Name: "Ana"}.Public("ana")
	if account.Username != "ana" || account.Name != "Ana" {
		t.Errorf("Public() = %+v", account)
	}
}

func TestRemove(t *testing.T) {
	r := newTestRegistry(t)
	for _, name := range []string{"ana", "luis"} {
		if _, err := r.Register(Registration{Username: name, Password: "secreto123"}); err != nil {
			t.Fatalf("Register(%s) error = %v", name, err)
		}
	}

	if err := r.Remove("ana"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := r.Get("ana"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Get(ana) error = %v, expected ErrUserNotFound", err)
	}
	if _, err := r.Get("luis"); err != nil {
		t.Errorf("Get(luis) error = %v", err)
	}
	if err := r.Remove("nadie"); err != nil {
		t.Errorf("Remove() of an unknown user error = %v", err)
	}
	if _, err := r.Register(Registration{Username: "ana", Password: "secreto123"}); err != nil {
		t.Errorf("Register() after Remove error = %v", err)
	}
}
