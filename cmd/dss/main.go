package main

import (
	"os"

	"dss/internal/dssctl"
)

// Version is injected by build scripts via -ldflags "-X main.Version=..."
var Version = "dev"

func main() {
	dssctl.Version = Version
	os.Exit(dssctl.Run(os.Args[1:]))
}
