// SPDX-License-Identifier: MPL-2.0

package specdoc

import (
	"errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

const sampleSpec = `openapi: 3.0.3
# API identity
info:
  title: Pets
  version: 0.0.0
version: 0.0.0
paths: {}
`

func mustParse(t *testing.T, data string) *Document {
	t.Helper()
	doc, err := Parse("openapi.yaml", []byte(data))
	if err != nil {
		t.Fatalf("Parse() returned unexpected error: %v", err)
	}
	return doc
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"comment only", "# nothing here\n"},
		{"scalar root", "just a string\n"},
		{"sequence root", "- a\n- b\n"},
		{"malformed", "openapi: [3.0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse("openapi.yaml", []byte(tt.data))
			if !errors.Is(err, ErrParse) {
				t.Fatalf("Parse() error = %v, want ErrParse", err)
			}
			var pErr *ParseError
			if !errors.As(err, &pErr) || pErr.Name != "openapi.yaml" {
				t.Errorf("error should be *ParseError naming the file, got: %#v", err)
			}
		})
	}
}

func TestDocument_WithField_TopLevel(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, sampleSpec)
	stamped, err := doc.WithField(DefaultVersionField, "v2.3.0")
	if err != nil {
		t.Fatalf("WithField() returned unexpected error: %v", err)
	}

	if got, _ := stamped.Field("version"); got != "v2.3.0" {
		t.Errorf("stamped version = %q, want %q", got, "v2.3.0")
	}
	if got, _ := stamped.Field("info.version"); got != "0.0.0" {
		t.Errorf("info.version = %q, should be untouched", got)
	}
	if got, _ := doc.Field("version"); got != "0.0.0" {
		t.Errorf("original document changed to %q", got)
	}
}

func TestDocument_WithField_Nested(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, sampleSpec)
	stamped, err := doc.WithField("info.version", "latest-01234567")
	if err != nil {
		t.Fatalf("WithField() returned unexpected error: %v", err)
	}
	if got, _ := stamped.Field("info.version"); got != "latest-01234567" {
		t.Errorf("info.version = %q, want %q", got, "latest-01234567")
	}
}

func TestDocument_WithField_CreatesMissing(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, "openapi: 3.0.3\n")
	stamped, err := doc.WithField("x-build.version", "v1")
	if err != nil {
		t.Fatalf("WithField() returned unexpected error: %v", err)
	}
	if got, ok := stamped.Field("x-build.version"); !ok || got != "v1" {
		t.Errorf("x-build.version = %q, %v; want v1", got, ok)
	}

	top, err := doc.WithField("version", "v1")
	if err != nil {
		t.Fatalf("WithField() returned unexpected error: %v", err)
	}
	if got, ok := top.Field("version"); !ok || got != "v1" {
		t.Errorf("version = %q, %v; want v1", got, ok)
	}
}

func TestDocument_WithField_BlockedByScalar(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, "info: plain\n")
	if _, err := doc.WithField("info.version", "v1"); err == nil {
		t.Fatal("WithField() through a scalar should fail")
	}
}

func TestDocument_WithField_InvalidPath(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, sampleSpec)
	for _, p := range []FieldPath{"", "info.", ".version", "info. .version"} {
		if _, err := doc.WithField(p, "v1"); !errors.Is(err, ErrInvalidFieldPath) {
			t.Errorf("WithField(%q) error = %v, want ErrInvalidFieldPath", p, err)
		}
	}
}

func TestDocument_Encode_PreservesOrderAndComments(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, sampleSpec)
	stamped, err := doc.WithField(DefaultVersionField, "v2.3.0")
	if err != nil {
		t.Fatalf("WithField() returned unexpected error: %v", err)
	}

	out, err := stamped.Encode()
	if err != nil {
		t.Fatalf("Encode() returned unexpected error: %v", err)
	}
	text := string(out)

	if !strings.Contains(text, "# API identity") {
		t.Errorf("comment lost:\n%s", text)
	}
	if !strings.Contains(text, "\nversion: v2.3.0\n") {
		t.Errorf("stamped field missing:\n%s", text)
	}
	order := []string{"openapi:", "info:", "\nversion:", "paths:"}
	last := -1
	for _, key := range order {
		i := strings.Index(text, key)
		if i <= last {
			t.Errorf("key %q out of order in:\n%s", key, text)
		}
		last = i
	}
}

func TestDocument_Encode_NumericLookingStampStaysString(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, "version: 1\n")
	stamped, err := doc.WithField(DefaultVersionField, "1.0")
	if err != nil {
		t.Fatalf("WithField() returned unexpected error: %v", err)
	}
	out, err := stamped.Encode()
	if err != nil {
		t.Fatalf("Encode() returned unexpected error: %v", err)
	}

	var decoded map[string]any
	if err := yaml.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("re-decoding output: %v", err)
	}
	if got, ok := decoded["version"].(string); !ok || got != "1.0" {
		t.Errorf("version decoded as %#v, want string \"1.0\"", decoded["version"])
	}
}
