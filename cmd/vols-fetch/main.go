package main

import (
	"os"

	"github.com/pfrederiksen/vols1365/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
