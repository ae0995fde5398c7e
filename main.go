package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/term"

	"promptpack/cmd"
	"promptpack/pkg/logging"
	"promptpack/pkg/version"
)

func main() {
	logger, err := logging.Setup(false, "promptpack", version.Version)
	if err != nil {
		log.Printf("Failed to initialize logger, using fallback: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = cmd.Execute(ctx, logger)
	stop()

	syncLogger(logger)
	if err != nil {
		os.Exit(1)
	}
}

// syncLogger flushes the logger when stderr supports it. Syncing a pipe or
// a console fails with "invalid argument" on some platforms.
func syncLogger(logger *zap.Logger) {
	if !term.IsTerminal(int(os.Stderr.Fd())) && !isRegularFile(os.Stderr) {
		return
	}
	if err := logger.Sync(); err != nil {
		if !strings.Contains(strings.ToLower(err.Error()), "invalid argument") {
			log.Printf("Logger sync failed: %v", err)
		}
	}
}

// isRegularFile checks if the given file is a regular file.
func isRegularFile(f *os.File) bool {
	fileInfo, err := f.Stat()
	if err != nil {
		return false
	}
	return fileInfo.Mode().IsRegular()
}
