package main

import (
	"os"

	"github.com/racecarparts/devcontainer/internal/devctl"
)

func main() {
	os.Exit(devctl.Main())
}
