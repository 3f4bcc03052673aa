package main

import "github.com/ppiankov/docguard/internal/cli"

func main() {
	cli.Execute()
}
