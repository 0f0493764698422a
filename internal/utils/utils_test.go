package utils

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestEqualFold(t *testing.T) {
	testCases := []struct {
		a, b        rune
		expected    bool
		description string
	}{
		{'a', 'A', true, "ASCII case"},
		{'a', 'b', false, "ASCII different"},
		{'é', 'É', true, "Non-ASCII case"},
		{'1', '1', true, "Digits"},
		{'_', '-', false, "Punctuation"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			if got := EqualFold(tc.a, tc.b); got != tc.expected {
				t.Errorf("EqualFold(%q, %q) = %v, expected %v", tc.a, tc.b, got, tc.expected)
			}
		})
	}
}

func TestIsValidQuery(t *testing.T) {
	testCases := []struct {
		input       string
		expected    bool
		description string
	}{
		{"getUser", true, "Camel case"},
		{"snake_case_1", true, "Underscores and digits"},
		{"", false, "Empty"},
		{"foo-bar", false, "Dash"},
		{"$price", false, "Sigil"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			if got := IsValidQuery(tc.input); got != tc.expected {
				t.Errorf("IsValidQuery(%q) = %v, expected %v", tc.input, got, tc.expected)
			}
		})
	}
}

func TestDedupe(t *testing.T) {
	got := Dedupe([]string{"b", "a", "b", "A", "a"})
	expected := []string{"b", "a", "A"}
	if len(got) != len(expected) {
		t.Fatalf("Dedupe = %v, expected %v", got, expected)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("Dedupe[%d] = %q, expected %q", i, got[i], expected[i])
		}
	}
	if Dedupe(nil) != nil {
		t.Errorf("Dedupe(nil) should be nil")
	}
}

func TestSeenSet(t *testing.T) {
	set := NewSeenSet("skip")
	if set.Add("skip") {
		t.Errorf("excluded word should not be added")
	}
	if !set.Add("word") || set.Add("word") {
		t.Errorf("Add should report only the first insertion")
	}
	if !set.Has("word") || set.Has("other") {
		t.Errorf("Has reports wrong membership")
	}
	if set.Len() != 2 {
		t.Errorf("Len = %d, expected 2", set.Len())
	}
}

func TestReadFileLimited(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	if err := os.WriteFile(path, []byte("0123456789"), 0644); err != nil {
		t.Fatal(err)
	}

	if text, err := ReadFileLimited(path, 10); err != nil || text != "0123456789" {
		t.Errorf("ReadFileLimited at limit = %q, %v", text, err)
	}
	if text, err := ReadFileLimited(path, 0); err != nil || text != "0123456789" {
		t.Errorf("ReadFileLimited without limit = %q, %v", text, err)
	}
	if _, err := ReadFileLimited(path, 9); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("expected ErrFileTooLarge, got %v", err)
	}
	if _, err := ReadFileLimited(filepath.Join(t.TempDir(), "missing"), 0); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestExtractStrings(t *testing.T) {
	data := map[string]any{
		"mixed": []any{"a", int64(1), "b"},
		"plain": "nope",
	}
	got, ok := ExtractStrings(data, "mixed")
	if !ok || len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("ExtractStrings(mixed) = %v, %v", got, ok)
	}
	if _, ok := ExtractStrings(data, "plain"); ok {
		t.Errorf("ExtractStrings should reject a non-array value")
	}
}
