package server

import (
	"io"
	"time"

	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"lamportd/internal/peers"
)

// Config is the configuration of a node, parsed from the command line.
type Config struct {
	ID        peers.ID
	Port      int
	PeersFile string

	LogLevel string
	LogFile  string

	// CSDuration is how long a console request holds the critical section.
	CSDuration   time.Duration
	DialTimeout  time.Duration
	SendAttempts int

	MetricsAddr string
	TraceFile   string
}

// ParseConfig parses the command line arguments, program name excluded.
// Usage text and parse errors are written to output.
func ParseConfig(args []string, output io.Writer) (Config, error) {
	var (
		config Config
		id     int
	)
	fs := gnuflag.NewFlagSet("lamportd", gnuflag.ContinueOnError)
	fs.SetOutput(output)

	fs.IntVar(&id, "i", -1, "identifier of the local process")
	fs.IntVar(&id, "id", -1, "")
	fs.IntVar(&config.Port, "p", 0, "port to listen on, shared by every peer")
	fs.IntVar(&config.Port, "port", 0, "")
	fs.StringVar(&config.PeersFile, "f", "", "peer list file, one \"<id> <address>\" per line, or YAML")
	fs.StringVar(&config.PeersFile, "config", "", "")
	fs.StringVar(&config.LogLevel, "log-level", "INFO", "loggo logging configuration")
	fs.StringVar(&config.LogFile, "log-file", "", "also log to this file, rotated")
	fs.DurationVar(&config.CSDuration, "cs-duration", 10*time.Second, "time spent in the critical section by REQUEST")
	fs.DurationVar(&config.DialTimeout, "dial-timeout", 2*time.Second, "timeout to connect to a peer")
	fs.IntVar(&config.SendAttempts, "send-attempts", 1, "attempts to deliver a message before dropping it")
	fs.StringVar(&config.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	fs.StringVar(&config.TraceFile, "trace-file", "", "append critical section events to this JSONL file")

	if err := fs.Parse(true, args); err != nil {
		return Config{}, err
	}
	if fs.NArg() > 0 {
		return Config{}, errors.NotValidf("unexpected arguments %q", fs.Args())
	}
	config.ID = peers.ID(id)
	return config, errors.Trace(config.Validate())
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.ID < 0 {
		return errors.NotValidf("missing or negative process id")
	}
	if c.Port < 1 || c.Port > 65535 {
		return errors.NotValidf("port %d", c.Port)
	}
	if c.PeersFile == "" {
		return errors.NotValidf("missing peer configuration file")
	}
	if c.CSDuration < 0 {
		return errors.NotValidf("negative critical section duration")
	}
	if c.DialTimeout <= 0 {
		return errors.NotValidf("dial timeout %v", c.DialTimeout)
	}
	if c.SendAttempts < 1 {
		return errors.NotValidf("send attempts %d", c.SendAttempts)
	}
	return nil
}
