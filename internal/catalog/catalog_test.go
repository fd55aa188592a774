package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestMemoryKB_OrderPreserved(t *testing.T) {
	kb := NewMemoryKB(
		ComponentSpec{Type: "B"},
		ComponentSpec{Type: "A"},
		ComponentSpec{Type: "C"},
	)
	specs, err := kb.ListComponentTypes(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	got := []string{specs[0].Type, specs[1].Type, specs[2].Type}
	want := []string{"B", "A", "C"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestMemoryKB_GetUnknown(t *testing.T) {
	kb := NewMemoryKB(ComponentSpec{Type: "A"})
	if _, err := kb.GetComponent(context.Background(), "Z"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSnapshot(t *testing.T) {
	snap, err := TakeSnapshot(context.Background(), BuiltinCatalog())
	if err != nil {
		t.Fatalf("TakeSnapshot error: %v", err)
	}
	if _, ok := snap.Get("ChatInput"); !ok {
		t.Fatal("ChatInput missing from snapshot")
	}
	if _, ok := snap.Get("Nope"); ok {
		t.Fatal("unexpected hit for unknown type")
	}
	types := snap.Types()
	if len(types) == 0 || types[0] != "ChatInput" {
		t.Fatalf("snapshot should preserve listing order, got %v", types)
	}
}

func TestPortAcceptsType(t *testing.T) {
	in := Port{Name: "prompt", Type: "Text", Compatible: []string{"Prompt"}}
	if !in.AcceptsType(Port{Name: "x", Type: "Text"}) {
		t.Fatal("exact type match rejected")
	}
	if !in.AcceptsType(Port{Name: "x", Type: "Prompt"}) {
		t.Fatal("input-declared compatibility rejected")
	}
	if !in.AcceptsType(Port{Name: "x", Type: "Message", Compatible: []string{"Text"}}) {
		t.Fatal("output-declared compatibility rejected")
	}
	if in.AcceptsType(Port{Name: "x", Type: "Number"}) {
		t.Fatal("incompatible type accepted")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	doc := `{"components": [
		{"type": "Source", "outputs": [{"name": "out", "type": "Text"}]},
		{"type": "Sink", "inputs": [{"name": "in", "type": "Text"}]}
	]}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	kb, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	spec, err := kb.GetComponent(context.Background(), "Source")
	if err != nil {
		t.Fatalf("GetComponent error: %v", err)
	}
	if len(spec.Outputs) != 1 || spec.Outputs[0].Name != "out" {
		t.Fatalf("unexpected spec: %+v", spec)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, []byte(`{"components": []}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected error for empty catalog")
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

// countingKB counts backend hits so caching behavior is observable.
type countingKB struct {
	inner *MemoryKB
	lists int
	gets  int
}

func (kb *countingKB) ListComponentTypes(ctx context.Context) ([]ComponentSpec, error) {
	kb.lists++
	return kb.inner.ListComponentTypes(ctx)
}

func (kb *countingKB) GetComponent(ctx context.Context, t string) (ComponentSpec, error) {
	kb.gets++
	return kb.inner.GetComponent(ctx, t)
}

func TestCachedKB(t *testing.T) {
	backend := &countingKB{inner: BuiltinCatalog()}
	kb := NewCachedKB(backend, 16, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := kb.ListComponentTypes(ctx); err != nil {
			t.Fatalf("List error: %v", err)
		}
	}
	if backend.lists != 1 {
		t.Fatalf("expected 1 backend list, got %d", backend.lists)
	}

	// Listing primes the per-component cache.
	if _, err := kb.GetComponent(ctx, "ChatInput"); err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if backend.gets != 0 {
		t.Fatalf("expected cached get, backend saw %d", backend.gets)
	}

	kb.Invalidate()
	if _, err := kb.GetComponent(ctx, "ChatInput"); err != nil {
		t.Fatalf("Get after invalidate error: %v", err)
	}
	if backend.gets != 1 {
		t.Fatalf("expected backend get after invalidate, got %d", backend.gets)
	}
}
