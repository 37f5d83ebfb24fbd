package records

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/iwvelando/consultorio/pkg/jsonfile"
	"github.com/iwvelando/consultorio/pkg/validation"
	"go.uber.org/zap"
)

func TestRegistryIsolatesUsers(t *testing.T) {
	dir := t.TempDir()
	registry := NewRegistry(zap.NewNop(), dir, "dental_data.json", DefaultSettings())

	ana, err := registry.Get("ana")
	if err != nil {
		t.Fatalf("Get(ana) error = %v", err)
	}
	luis, err := registry.Get("luis")
	if err != nil {
		t.Fatalf("Get(luis) error = %v", err)
	}

	if _, err := ana.AddVisit(Visit{Patient: "P", Treatment: "Consulta", AmountARS: 1000}); err != nil {
		t.Fatalf("AddVisit() error = %v", err)
	}
	if got := len(luis.Snapshot().Visits); got != 0 {
		t.Errorf("luis sees %d visits from ana", got)
	}
	if ana.Path() != filepath.Join(dir, "ana", "dental_data.json") {
		t.Errorf("unexpected path %s", ana.Path())
	}

	again, err := registry.Get("ana")
	if err != nil {
		t.Fatalf("Get(ana) error = %v", err)
	}
	if again != ana {
		t.Error("expected cached store to be returned")
	}
}

func TestRegistryCreateWritesDefaults(t *testing.T) {
	dir := t.TempDir()
	defaults := DefaultSettings()
	defaults.HourlyCost = 35000
	registry := NewRegistry(zap.NewNop(), dir, "dental_data.json", defaults)

	store, err := registry.Create("nuevo")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !jsonfile.Exists(store.Path()) {
		t.Fatal("expected document to be written")
	}

	var doc Document
	if err := jsonfile.Read(store.Path(), &doc); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if doc.Config.HourlyCost != 35000 {
		t.Errorf("hourly cost = %v, expected 35000", doc.Config.HourlyCost)
	}

	if _, err := store.AddVisit(Visit{Patient: "P", Treatment: "Consulta", AmountARS: 1}); err != nil {
		t.Fatalf("AddVisit() error = %v", err)
	}
	if _, err := registry.Create("nuevo"); err != nil {
		t.Fatalf("second Create() error = %v", err)
	}
	registry.Evict("nuevo")
	reopened, err := registry.Get("nuevo")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(reopened.Snapshot().Visits) != 1 {
		t.Error("second Create must not overwrite an existing document")
	}
}

func TestRegistryRejectsUnsafeIDs(t *testing.T) {
	registry := NewRegistry(zap.NewNop(), t.TempDir(), "dental_data.json", DefaultSettings())
	for _, id := range []string{"", "..", "a/b", `a\b`, " ana"} {
		if _, err := registry.Get(id); !errors.Is(err, validation.ErrInvalidInput) {
			t.Errorf("Get(%q) error = %v, expected ErrInvalidInput", id, err)
		}
	}
}

func TestRegistryReserve(t *testing.T) {
	dir := t.TempDir()
	registry := NewRegistry(zap.NewNop(), dir, "dental_data.json", DefaultSettings())
	registry.Reserve(filepath.Join(dir, "usuarios.json"))
	registry.Reserve(filepath.Join(dir, "cuentas", "usuarios.json"))
	registry.Reserve(filepath.Join(filepath.Dir(dir), "elsewhere.json"))

	tests := []struct {
		id       string
		reserved bool
	}{
		{"usuarios.json", true},
		{"cuentas", true},
		{"elsewhere.json", false},
		{"ana", false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			_, err := registry.DocumentPath(tt.id)
			if tt.reserved && !errors.Is(err, validation.ErrInvalidInput) {
				t.Errorf("DocumentPath(%q) error = %v, expected ErrInvalidInput", tt.id, err)
			}
			if !tt.reserved && err != nil {
				t.Errorf("DocumentPath(%q) error = %v", tt.id, err)
			}
		})
	}
}
