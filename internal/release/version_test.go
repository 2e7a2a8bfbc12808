// SPDX-License-Identifier: MPL-2.0

package release

import (
	"errors"
	"testing"
)

const devBranch = "refs/heads/main"

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		ref            string
		want           Version
		wantRecognized bool
	}{
		{"dev branch", "refs/heads/main", Latest, true},
		{"simple tag", "refs/tags/v2.3.0", "v2.3.0", true},
		{"tag with slashes", "refs/tags/release/2024/v1", "release/2024/v1", true},
		{"tag with odd characters", "refs/tags/v1.0.0+build.7", "v1.0.0+build.7", true},
		{"tag named latest", "refs/tags/latest", Latest, true},
		{"feature branch", "refs/heads/feature/x", Latest, false},
		{"empty tag name", "refs/tags/", Latest, false},
		{"pull request ref", "refs/pull/12/merge", Latest, false},
		{"empty ref", "", Latest, false},
		{"tag prefix not anchored", "xrefs/tags/v1", Latest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, recognized := ClassifyRef(tt.ref, devBranch)
			if got != tt.want {
				t.Errorf("ClassifyRef(%q) = %q, want %q", tt.ref, got, tt.want)
			}
			if recognized != tt.wantRecognized {
				t.Errorf("ClassifyRef(%q) recognized = %v, want %v", tt.ref, recognized, tt.wantRecognized)
			}
			if plain := Classify(tt.ref, devBranch); plain != got {
				t.Errorf("Classify(%q) = %q, ClassifyRef gave %q", tt.ref, plain, got)
			}
		})
	}
}

func TestClassify_CustomDevBranch(t *testing.T) {
	t.Parallel()

	if got := Classify("refs/heads/develop", "refs/heads/develop"); got != Latest {
		t.Errorf("Classify(dev branch) = %q, want %q", got, Latest)
	}
	// The dev branch check wins even when the dev branch looks like a tag.
	if got := Classify("refs/tags/nightly", "refs/tags/nightly"); got != Latest {
		t.Errorf("Classify(tag-shaped dev branch) = %q, want %q", got, Latest)
	}
}

func TestVersion_IsRelease(t *testing.T) {
	t.Parallel()

	tests := []struct {
		v    Version
		want bool
	}{
		{Latest, false},
		{"v1.0.0", true},
		{"Latest", true},
		{"latest ", true},
		{"stable", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.v), func(t *testing.T) {
			t.Parallel()
			if got := tt.v.IsRelease(); got != tt.want {
				t.Errorf("Version(%q).IsRelease() = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestVersion_Validate(t *testing.T) {
	t.Parallel()

	if err := Version("v1").Validate(); err != nil {
		t.Errorf("Validate() returned unexpected error: %v", err)
	}

	for _, v := range []Version{"", "  ", "\t"} {
		err := v.Validate()
		if !errors.Is(err, ErrInvalidVersion) {
			t.Errorf("Version(%q).Validate() = %v, want ErrInvalidVersion", v, err)
		}
		var vErr *InvalidVersionError
		if !errors.As(err, &vErr) {
			t.Errorf("error should be *InvalidVersionError, got: %T", err)
		}
	}
}

func TestVersion_Stamp(t *testing.T) {
	t.Parallel()

	const commit = "0123456789abcdef0123456789abcdef01234567"

	got, err := Latest.Stamp(commit)
	if err != nil {
		t.Fatalf("Stamp() returned unexpected error: %v", err)
	}
	if got != "latest-01234567" {
		t.Errorf("Latest.Stamp() = %q, want %q", got, "latest-01234567")
	}

	got, err = Version("v2.3.0").Stamp(commit)
	if err != nil {
		t.Fatalf("Stamp() returned unexpected error: %v", err)
	}
	if got != "v2.3.0" {
		t.Errorf("release Stamp() = %q, want %q", got, "v2.3.0")
	}

	// Release stamps never need a commit.
	if _, err := Version("v2.3.0").Stamp(""); err != nil {
		t.Errorf("release Stamp(\"\") returned unexpected error: %v", err)
	}

	if _, err := Latest.Stamp("   "); !errors.Is(err, ErrMissingCommit) {
		t.Errorf("Latest.Stamp(blank) error = %v, want ErrMissingCommit", err)
	}
}

func TestShortCommit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"abcdef0123456789", "abcdef01"},
		{"abcdef01", "abcdef01"},
		{"abc", "abc"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ShortCommit(tt.in); got != tt.want {
			t.Errorf("ShortCommit(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
