package main

import (
	"os"

	"rsyncsnap/src/cli"
)

func main() {
	os.Exit(cli.Execute())
}
