package server

import (
	"fmt"
	"net"
	"sync"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/worker/v4"
	"github.com/juju/worker/v4/catacomb"
	"github.com/prometheus/client_golang/prometheus"

	"lamportd/internal/lamport"
	"lamportd/internal/logging"
	"lamportd/internal/metrics"
	"lamportd/internal/mutex"
	"lamportd/internal/peers"
	"lamportd/internal/trace"
	"lamportd/internal/transport/tcp"
)

// Server is a node of the peer set: it owns the transport and the mutex
// engine, and dies with either of them.
type Server struct {
	catacomb catacomb.Catacomb

	config    Config
	logger    *logging.Logger
	clock     lamport.Clock
	wallClock clock.Clock
	registry  *peers.Registry

	transport *tcp.TCP
	engine    *mutex.Engine
	metrics   *metricsServer
	trace     *trace.FileRecorder
	traceOnce sync.Once
}

// NewServer loads the peer list and starts the node.
func NewServer(config Config, logger *logging.Logger) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	registry, err := peers.Load(config.PeersFile, config.ID, uint16(config.Port))
	if err != nil {
		return nil, errors.Trace(err)
	}

	s := &Server{
		config:    config,
		logger:    logger,
		clock:     lamport.NewLamportClock(),
		wallClock: clock.WallClock,
		registry:  registry,
	}
	var workers []worker.Worker
	stopAll := func() {
		for _, w := range workers {
			_ = worker.Stop(w)
		}
		_ = s.closeTrace()
	}

	collector := metrics.NewCollector()
	if config.MetricsAddr != "" {
		gatherer := prometheus.NewRegistry()
		gatherer.MustRegister(collector)
		if s.metrics, err = newMetricsServer(config.MetricsAddr, gatherer, logger.WithPostfix("metrics")); err != nil {
			return nil, errors.Trace(err)
		}
		workers = append(workers, s.metrics)
	}

	var recorder trace.Recorder
	if config.TraceFile != "" {
		if s.trace, err = trace.NewFileRecorder(config.TraceFile); err != nil {
			stopAll()
			return nil, errors.Trace(err)
		}
		recorder = s.trace
	}

	s.transport, err = tcp.NewTCP(tcp.Config{
		Self:         config.ID,
		Registry:     registry,
		ListenAddr:   fmt.Sprintf(":%d", config.Port),
		Logger:       logger.WithPostfix("tcp"),
		Clock:        s.wallClock,
		Metrics:      collector,
		DialTimeout:  config.DialTimeout,
		SendAttempts: config.SendAttempts,
	})
	if err != nil {
		stopAll()
		return nil, errors.Trace(err)
	}
	workers = append(workers, s.transport)

	s.engine, err = mutex.NewEngine(mutex.Config{
		Self:      config.ID,
		Registry:  registry,
		Network:   s.transport,
		Clock:     s.clock,
		WallClock: s.wallClock,
		Logger:    logger.WithPostfix("mutex"),
		Metrics:   collector,
		Trace:     recorder,
	})
	if err != nil {
		stopAll()
		return nil, errors.Trace(err)
	}
	workers = append(workers, s.engine)
	s.transport.Serve(s.engine)

	if err := catacomb.Invoke(catacomb.Plan{
		Site: &s.catacomb,
		Work: s.loop,
		Init: workers,
	}); err != nil {
		_ = s.closeTrace()
		return nil, errors.Trace(err)
	}

	logger.Infof("Process %d started on port %d with %d peers", config.ID, config.Port, registry.Len())
	return s, nil
}

// Kill is part of the worker.Worker interface.
func (s *Server) Kill() {
	s.catacomb.Kill(nil)
}

// Wait is part of the worker.Worker interface. It returns the error that
// stopped the node, such as a protocol violation.
func (s *Server) Wait() error {
	err := s.catacomb.Wait()
	if cerr := s.closeTrace(); cerr != nil && err == nil {
		err = errors.Annotate(cerr, "closing trace file")
	}
	return err
}

// Status returns a snapshot of the mutex engine.
func (s *Server) Status() (mutex.Status, error) {
	return s.engine.Status()
}

// Addr returns the address of the peer transport listener.
func (s *Server) Addr() net.Addr {
	return s.transport.Addr()
}

// MetricsAddr returns the address metrics are served on, or nil.
func (s *Server) MetricsAddr() net.Addr {
	if s.metrics == nil {
		return nil
	}
	return s.metrics.Addr()
}

func (s *Server) closeTrace() error {
	var err error
	s.traceOnce.Do(func() {
		if s.trace != nil {
			err = s.trace.Close()
		}
	})
	return err
}

func (s *Server) loop() error {
	<-s.catacomb.Dying()
	s.logger.Infof("Process %d stopping", s.config.ID)
	return s.catacomb.ErrDying()
}
