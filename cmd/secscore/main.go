package main

import (
	"os"

	"github.com/build-flow-labs/secscore/internal/secscore/cli"
)

func main() {
	os.Exit(cli.Execute())
}
