package cache

import (
	"os"
	"path/filepath"
	"testing"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestStoreRoundTrip(t *testing.T) {
	s := NewStore(t.TempDir(), true)

	if err := s.Put(CategoryRules, "5.5.1", payload{Name: "rules", Count: 3}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	var got payload
	ok, err := s.Get(CategoryRules, "5.5.1", &got)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected hit")
	}
	if got.Name != "rules" || got.Count != 3 {
		t.Errorf("got %+v", got)
	}
}

func TestStoreMiss(t *testing.T) {
	s := NewStore(t.TempDir(), true)
	var got payload
	ok, err := s.Get(CategoryQuestions, "absent", &got)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("expected miss")
	}
}

func TestStoreCorruptEntryIsMiss(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, true)
	path := filepath.Join(dir, CategoryValidation, "bad.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	var got payload
	ok, err := s.Get(CategoryValidation, "bad", &got)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("corrupt entry reported as hit")
	}
}

func TestStoreDisabled(t *testing.T) {
	s := NewStore(t.TempDir(), false)
	if err := s.Put(CategoryRules, "k", payload{Name: "x"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	var got payload
	ok, err := s.Get(CategoryRules, "k", &got)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("disabled store returned a hit")
	}
}

func TestStoreInvalidate(t *testing.T) {
	s := NewStore(t.TempDir(), true)
	if err := s.Put(CategoryRules, "k", payload{}); err != nil {
		t.Fatal(err)
	}
	if err := s.Invalidate(CategoryRules, "k"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	var got payload
	if ok, _ := s.Get(CategoryRules, "k", &got); ok {
		t.Error("entry survived invalidation")
	}
	// Invalidating again is fine.
	if err := s.Invalidate(CategoryRules, "k"); err != nil {
		t.Errorf("Invalidate on missing entry: %v", err)
	}
}

func TestSanitizeKey(t *testing.T) {
	cases := map[string]string{
		"5.5.1_r0":        "5.5.1_r0",
		"../escape":       "__escape",
		"a/b":             "a_b",
		"":                "_",
		"q\\r":            "q_r",
	}
	for in, want := range cases {
		if got := sanitizeKey(in); got != want {
			t.Errorf("sanitizeKey(%q) = %q, want %q", in, got, want)
		}
	}
}
