package main

import (
	"os"
	"time"

	"github.com/halias/halias-go/cmd"
	"github.com/halias/halias-go/internal/buildinfo"
	"github.com/halias/halias-go/internal/errors"
	"github.com/halias/halias-go/internal/logger"
)

// Set at build time with -ldflags "-X main.version=... -X main.buildDate=..."
var (
	version   = "dev"
	buildDate string
)

func main() {
	os.Exit(run())
}

func run() int {
	defer errors.FlushTelemetry(2 * time.Second)
	defer func() {
		_ = logger.Global().Flush()
	}()

	if err := cmd.RootCommand(buildinfo.NewContext(version, buildDate)).Execute(); err != nil {
		return 1
	}
	return 0
}
