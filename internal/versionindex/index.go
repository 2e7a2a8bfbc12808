// SPDX-License-Identifier: MPL-2.0

package versionindex

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/specpub/specpub/internal/release"

	"golang.org/x/exp/slices"
)

// Stable is the alias key repointed to every new release.
const Stable release.Version = "stable"

// ErrFormat is the sentinel error wrapped by FormatError.
var ErrFormat = errors.New("version index is not in the expected format")

type (
	// Record points an index key at a published spec. Spec and Source are
	// always equal today; they are kept apart so they can diverge later.
	Record struct {
		Spec   release.Version `json:"spec"`
		Source release.Version `json:"source"`
	}

	// Index is an insertion-ordered mapping from version label to Record.
	// The zero value is an empty index ready to use.
	//
	// Entries read by Parse keep their original JSON and are encoded from
	// it, so fields outside Record survive a round trip. Set replaces it.
	Index struct {
		keys    []release.Version
		records map[release.Version]Record
		raw     map[release.Version]json.RawMessage
	}

	// FormatError is returned when index content is not a mapping of
	// labels to records.
	FormatError struct {
		Reason string
		Err    error
	}
)

// RecordFor returns the record that publishes version v.
func RecordFor(v release.Version) Record {
	return Record{Spec: v, Source: v}
}

// New returns an empty Index.
func New() *Index {
	return &Index{records: make(map[release.Version]Record)}
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("version index format: %s: %v", e.Reason, e.Err)
	}
	return "version index format: " + e.Reason
}

// Unwrap returns ErrFormat for errors.Is() compatibility.
func (e *FormatError) Unwrap() error { return ErrFormat }

// Len returns the number of keys.
func (ix *Index) Len() int { return len(ix.keys) }

// Keys returns the keys in order.
func (ix *Index) Keys() []release.Version { return slices.Clone(ix.keys) }

// Get returns the record stored under v.
func (ix *Index) Get(v release.Version) (Record, bool) {
	r, ok := ix.records[v]
	return r, ok
}

// Set stores r under v. A new key is appended; an existing key keeps its
// position.
func (ix *Index) Set(v release.Version, r Record) {
	if ix.records == nil {
		ix.records = make(map[release.Version]Record)
	}
	if _, exists := ix.records[v]; !exists {
		ix.keys = append(ix.keys, v)
	}
	ix.records[v] = r
	delete(ix.raw, v)
}

// setParsed stores a record together with the JSON it was decoded from.
func (ix *Index) setParsed(v release.Version, r Record, raw json.RawMessage) {
	ix.Set(v, r)
	if ix.raw == nil {
		ix.raw = make(map[release.Version]json.RawMessage)
	}
	ix.raw[v] = raw
}

// copyEntry copies the entry under v from src, original JSON included.
func (ix *Index) copyEntry(src *Index, v release.Version) {
	if raw, ok := src.raw[v]; ok {
		ix.setParsed(v, src.records[v], raw)
		return
	}
	ix.Set(v, src.records[v])
}

// Clone returns a deep copy of the index.
func (ix *Index) Clone() *Index {
	c := New()
	for _, k := range ix.keys {
		c.copyEntry(ix, k)
	}
	return c
}

// Equal reports whether both indexes hold the same keys, in the same order,
// with entries that encode to the same JSON.
func (ix *Index) Equal(other *Index) bool {
	if !slices.Equal(ix.keys, other.keys) {
		return false
	}
	for _, k := range ix.keys {
		a, errA := ix.entryJSON(k)
		b, errB := other.entryJSON(k)
		if errA != nil || errB != nil || !bytes.Equal(a, b) {
			return false
		}
	}
	return true
}

// entryJSON returns the compact JSON of the entry under v.
func (ix *Index) entryJSON(v release.Version) ([]byte, error) {
	raw, ok := ix.raw[v]
	if !ok {
		return json.Marshal(ix.records[v])
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalJSON encodes the index as a JSON object in key order.
func (ix *Index) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range ix.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(k))
		if err != nil {
			return nil, err
		}
		rec, err := ix.entryJSON(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(rec)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object of records, keeping key order.
// Anything other than an object of objects is a FormatError.
func (ix *Index) UnmarshalJSON(data []byte) error {
	parsed := New()

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return &FormatError{Reason: "invalid JSON", Err: err}
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return &FormatError{Reason: fmt.Sprintf("expected an object, got %v", describeToken(tok))}
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return &FormatError{Reason: "invalid JSON", Err: err}
		}
		key, _ := tok.(string) // object keys are always strings
		if key == "" {
			return &FormatError{Reason: "empty version label"}
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return &FormatError{Reason: fmt.Sprintf("entry %q", key), Err: err}
		}
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 || trimmed[0] != '{' {
			return &FormatError{Reason: fmt.Sprintf("entry %q: expected an object, got %s", key, trimmed)}
		}

		var rec Record
		if err := json.Unmarshal(trimmed, &rec); err != nil {
			return &FormatError{Reason: fmt.Sprintf("entry %q", key), Err: err}
		}
		parsed.setParsed(release.Version(key), rec, slices.Clone(trimmed))
	}

	if _, err := dec.Token(); err != nil {
		return &FormatError{Reason: "invalid JSON", Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return &FormatError{Reason: "unexpected data after the index object"}
	}

	*ix = *parsed
	return nil
}

// Parse decodes index content fetched from the publishing target.
func Parse(data []byte) (*Index, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &FormatError{Reason: "empty content"}
	}
	ix := New()
	if err := json.Unmarshal(data, ix); err != nil {
		var fmtErr *FormatError
		if errors.As(err, &fmtErr) {
			return nil, fmtErr
		}
		return nil, &FormatError{Reason: "invalid JSON", Err: err}
	}
	return ix, nil
}

// Encode renders the index as JSON indented with one space.
func Encode(ix *Index) ([]byte, error) {
	data, err := json.MarshalIndent(ix, "", " ")
	if err != nil {
		return nil, fmt.Errorf("encoding version index: %w", err)
	}
	return data, nil
}

func describeToken(tok json.Token) string {
	switch v := tok.(type) {
	case json.Delim:
		if v == '[' {
			return "an array"
		}
		return string(v)
	case nil:
		return "null"
	case string:
		return "a string"
	case bool:
		return "a boolean"
	default:
		return "a number"
	}
}
