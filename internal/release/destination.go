// SPDX-License-Identifier: MPL-2.0

package release

import (
	"path/filepath"
	"strings"
)

// Extension returns the substring of sourcePath from its last '.' to the
// end, dot included, or "" when the path has no dot.
//
// The whole path is searched, not only the base name: "dir.v2/spec" yields
// ".v2/spec".
func Extension(sourcePath string) string {
	i := strings.LastIndex(sourcePath, ".")
	if i < 0 {
		return ""
	}
	return sourcePath[i:]
}

// Resolve computes <targetDir>/<targetPrefix>.<version><ext> where ext is
// the extension of sourcePath.
//
// The result is cleaned, so a version containing "/" or ".." segments can
// leave targetDir or land on another label's path. Distinct versions map
// to distinct paths only when they contain no such segments, which holds
// for every ref git accepts as a tag.
func Resolve(sourcePath string, version Version, targetPrefix, targetDir string) string {
	name := targetPrefix + "." + string(version) + Extension(sourcePath)
	return filepath.Join(targetDir, name)
}
