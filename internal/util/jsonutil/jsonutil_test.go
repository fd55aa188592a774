package jsonutil

import (
	"strings"
	"testing"
)

func TestMarshalNoEscape(t *testing.T) {
	out, err := MarshalNoEscape(map[string]string{"q": "a < b && c > d"})
	if err != nil {
		t.Fatalf("MarshalNoEscape error: %v", err)
	}
	if strings.Contains(string(out), `<`) {
		t.Fatalf("HTML escaping not disabled: %s", out)
	}
	if strings.HasSuffix(string(out), "\n") {
		t.Fatalf("trailing newline not trimmed: %q", out)
	}
}

func TestUnmarshalFlex_Direct(t *testing.T) {
	var v struct {
		A int `json:"a"`
	}
	if err := UnmarshalFlex([]byte(`{"a": 3}`), &v); err != nil {
		t.Fatalf("UnmarshalFlex error: %v", err)
	}
	if v.A != 3 {
		t.Fatalf("a = %d", v.A)
	}
}

func TestUnmarshalFlex_QuotedDocument(t *testing.T) {
	// The whole payload arrives as one JSON-encoded string.
	raw := []byte(`"{\"a\": 7}"`)
	var v struct {
		A int `json:"a"`
	}
	if err := UnmarshalFlex(raw, &v); err != nil {
		t.Fatalf("UnmarshalFlex error: %v", err)
	}
	if v.A != 7 {
		t.Fatalf("a = %d", v.A)
	}
}

func TestNormalizeJSONUnicode_DoubleEscaped(t *testing.T) {
	raw := []byte(`{"s": "a \\u003e b"}`)
	norm, err := NormalizeJSONUnicode(raw)
	if err != nil {
		t.Fatalf("NormalizeJSONUnicode error: %v", err)
	}
	if !strings.Contains(string(norm), "a > b") {
		t.Fatalf("double escape not resolved: %s", norm)
	}
}

func TestUnmarshalFlex_InvalidStaysInvalid(t *testing.T) {
	var v any
	if err := UnmarshalFlex([]byte(`{broken`), &v); err == nil {
		t.Fatal("expected error for invalid payload")
	}
}
