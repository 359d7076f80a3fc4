package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/tomb.v2"

	"lamportd/internal/logging"
)

// metricsServer serves /metrics until killed.
type metricsServer struct {
	tomb     tomb.Tomb
	listener net.Listener
	server   *http.Server
}

func newMetricsServer(addr string, gatherer prometheus.Gatherer, logger *logging.Logger) (*metricsServer, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Annotatef(err, "listening for metrics on %s", addr)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	m := &metricsServer{
		listener: listener,
		server: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}

	m.tomb.Go(func() error {
		err := m.server.Serve(listener)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Annotate(err, "serving metrics")
	})
	m.tomb.Go(func() error {
		<-m.tomb.Dying()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return errors.Trace(m.server.Shutdown(ctx))
	})

	logger.Infof("Serving metrics on http://%s/metrics", listener.Addr())
	return m, nil
}

func (m *metricsServer) Addr() net.Addr {
	return m.listener.Addr()
}

// Kill is part of the worker.Worker interface.
func (m *metricsServer) Kill() {
	m.tomb.Kill(nil)
}

// Wait is part of the worker.Worker interface.
func (m *metricsServer) Wait() error {
	return m.tomb.Wait()
}
