// SPDX-License-Identifier: MPL-2.0

// Command specpub publishes versioned API specifications from CI builds.
package main

import cmd "github.com/specpub/specpub/cmd/specpub"

func main() {
	cmd.Execute()
}
