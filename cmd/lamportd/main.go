package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"lamportd/internal/logging"
	"lamportd/internal/server"
	"lamportd/internal/utils/ioUtils"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	config, err := server.ParseConfig(args, os.Stderr)
	if errors.Is(err, gnuflag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Invalid arguments:", err)
		return 2
	}

	logFile, err := logging.Configure(logging.Options{
		Level:      config.LogLevel,
		Console:    os.Stderr,
		File:       config.LogFile,
		MaxSizeMB:  10,
		MaxBackups: 3,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "Invalid logging configuration:", err)
		return 2
	}
	defer logFile.Close()

	logger := logging.NewLogger(fmt.Sprintf("node-%d", config.ID))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.NewServer(config, logger)
	if err != nil {
		logger.Errorf("Failed to start: %v", err)
		return 1
	}

	go func() {
		if err := srv.RunConsole(ioutils.NewStdStream()); err != nil {
			logger.Warnf("Console stopped: %v", err)
			return
		}
		logger.Infof("Console closed, still serving peers until interrupted")
	}()

	stopped := make(chan error, 1)
	go func() {
		stopped <- srv.Wait()
	}()

	select {
	case <-ctx.Done():
		logger.Infof("Interrupted, shutting down")
		srv.Kill()
		err = <-stopped
	case err = <-stopped:
	}
	if err != nil {
		logger.Errorf("Stopped: %v", err)
		return 1
	}
	return 0
}
