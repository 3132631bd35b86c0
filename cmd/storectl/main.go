package main

import "github.com/fekuna/chronostore/internal/cli"

func main() {
	cli.Execute()
}
