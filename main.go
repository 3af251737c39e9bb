package main

import (
	"github.com/moonfall-dev/moonfall/cmd"
)

var version = "v0.3.1"

func main() {
	cmd.Execute(version)
}
