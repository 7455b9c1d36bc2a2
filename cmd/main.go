// cmd/main.go - Program entry
package main

import (
	"docsite-generator/internal/cli"
)

// set by the linker during build
var version string

func main() {
	if version != "" {
		cli.Version = version
	}
	cli.Execute()
}
