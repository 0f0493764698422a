package tokenize

import (
	"reflect"
	"testing"
)

func TestExtract(t *testing.T) {
	testCases := []struct {
		input       string
		expected    []string
		description string
	}{
		{"", nil, "Empty text"},
		{"   \n\t ", nil, "Only whitespace"},
		{"foo bar", []string{"foo", "bar"}, "Two words"},
		{"let getUserName = 1;", []string{"let", "getUserName", "1"}, "Statement"},
		{"foo foo", []string{"foo", "foo"}, "Duplicates kept in order"},
		{"$var = $other", []string{"$var", "$other"}, "Sigil prefixed"},
		{"$ alone", []string{"alone"}, "Sigil without word"},
		{"a$b", []string{"a", "$b"}, "Sigil inside run starts new token"},
		{"$$x", []string{"$x"}, "Only one sigil is taken"},
		{"_private __dunder__", []string{"_private", "__dunder__"}, "Underscores are word chars"},
		{"utf8Decode(x2)", []string{"utf8Decode", "x2"}, "Digits inside words"},
		{"naïve café", []string{"naïve", "café"}, "Unicode letters"},
		{"end$", []string{"end"}, "Trailing sigil"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			got := Extract(tc.input)
			if !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("Extract(%q): expected %q, got %q", tc.input, tc.expected, got)
			}
		})
	}
}

func TestExtractWithoutSigils(t *testing.T) {
	tok := NewTokenizer("")
	got := tok.Extract("$var @at")
	expected := []string{"var", "at"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

func TestExtractCustomSigils(t *testing.T) {
	tok := NewTokenizer("$@")
	got := tok.Extract("@decorator $x #tag")
	expected := []string{"@decorator", "$x", "tag"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

func TestStripSigil(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"$foo", "foo"},
		{"foo", "foo"},
		{"$", ""},
		{"", ""},
		{"$$foo", "$foo"},
	}
	for _, tc := range testCases {
		if got := StripSigil(tc.input); got != tc.expected {
			t.Errorf("StripSigil(%q): expected %q, got %q", tc.input, tc.expected, got)
		}
	}
}

func TestSubwords(t *testing.T) {
	testCases := []struct {
		input       string
		expected    []string
		description string
	}{
		{"getUserName", []string{"get", "User", "Name"}, "camelCase"},
		{"GetUserName", []string{"Get", "User", "Name"}, "PascalCase"},
		{"get_user_name", []string{"get", "user", "name"}, "snake_case"},
		{"HTTPServer", []string{"H", "T", "T", "P", "Server"}, "Capital run"},
		{"utf8Decode", []string{"utf", "8", "Decode"}, "Digits abutting letters"},
		{"x264", []string{"x", "264"}, "Trailing digit run"},
		{"_leading", []string{"leading"}, "Leading underscore"},
		{"$price", []string{"price"}, "Sigil is a boundary"},
		{"gUN", []string{"g", "U", "N"}, "Abbreviation query"},
		{"A", []string{"A"}, "Single uppercase letter"},
		{"", nil, "Empty"},
		{"___", nil, "Only separators"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			got := Subwords(tc.input)
			if !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("Subwords(%q): expected %q, got %q", tc.input, tc.expected, got)
			}
		})
	}
}

func BenchmarkExtract(b *testing.B) {
	text := "func (c *Completer) Complete(prefix string, limit int) []Suggestion { return nil }\n"
	for i := 0; i < b.N; i++ {
		Extract(text)
	}
}
