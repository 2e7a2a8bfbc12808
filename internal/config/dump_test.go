// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func sampleConfig() *Config {
	cfg := DefaultConfig()
	cfg.TargetDir = "out"
	cfg.Ref = "refs/tags/v1.0.0"
	cfg.Repository = "acme/api"
	cfg.Token = "secret"
	return &cfg
}

func TestDump(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format Format
		want   []string
	}{
		{FormatCUE, []string{`prefix: "openapi"`, `target_dir: "out"`, `ref: "refs/tags/v1.0.0"`}},
		{FormatTOML, []string{"prefix = ", "target_dir = ", "repository = "}},
		{FormatYAML, []string{"prefix: openapi", "target_dir: out", "repository: acme/api"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			t.Parallel()
			out, err := Dump(sampleConfig(), tt.format)
			if err != nil {
				t.Fatalf("Dump() error = %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(string(out), w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
			if strings.Contains(string(out), "secret") {
				t.Errorf("output leaks the token:\n%s", out)
			}
		})
	}
}

func TestDump_InvalidFormat(t *testing.T) {
	t.Parallel()

	if _, err := Dump(sampleConfig(), Format("json")); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("Dump() error = %v, want ErrInvalidFormat", err)
	}
}

func TestGenerateCUE_LoadsBack(t *testing.T) {
	t.Parallel()

	want := sampleConfig()
	dir := t.TempDir()
	writeFile(t, dir, ConfigFileName, GenerateCUE(want))

	got, err := NewProvider().Load(context.Background(), LoadOptions{BaseDir: dir, LookupEnv: envMap(nil)})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want.Token = ""
	if *got != *want {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", *got, *want)
	}
}
