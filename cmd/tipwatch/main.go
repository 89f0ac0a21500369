// Package main is the entry point for the tipwatch CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/blackwell-systems/tipwatch/internal/app"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0"
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app.SetVersion(version)
	app.Execute(ctx)
}
