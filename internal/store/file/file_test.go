package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gastos/internal/core"
	"gastos/internal/store"
)

func TestFileStoreLoadMissing(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "config", "configuracion.json"))
	if _, err := s.Load(context.Background()); !errors.Is(err, store.ErrConfigNotFound) {
		t.Fatalf("expected ErrConfigNotFound, got %v", err)
	}
}

func TestFileStoreSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "configuracion.json")
	s := New(path)

	cfg := core.DefaultConfig()
	cfg.Usuario.Nombre = "Ana María"
	if err := s.Save(context.Background(), cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(raw), `"nombre": "Ana María"`) {
		t.Fatalf("expected indented UTF-8 document, got %s", raw[:80])
	}

	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Usuario.Nombre != "Ana María" || len(got.GastosFijos) != len(cfg.GastosFijos) {
		t.Fatalf("unexpected round trip %+v", got.Usuario)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("temporary files left behind: %v", entries)
	}
}

func TestFileStoreInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "configuracion.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := New(path).Load(context.Background())
	if err == nil || errors.Is(err, store.ErrConfigNotFound) {
		t.Fatalf("expected decode error, got %v", err)
	}
}
