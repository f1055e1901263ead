// Package main is the single-binary entrypoint for Shadow.
package main

import "github.com/shadowlingo/shadow/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
