package tcp

import (
	"context"
	"net"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/retry"
	"gopkg.in/tomb.v2"

	"lamportd/internal/logging"
	"lamportd/internal/metrics"
	"lamportd/internal/mutex"
	"lamportd/internal/peers"
	"lamportd/internal/utils"
)

const (
	defaultDialTimeout = 2 * time.Second
	defaultIOTimeout   = 5 * time.Second
	defaultRetryDelay  = 100 * time.Millisecond
)

// ErrStopped is returned by Send once the transport is shutting down.
const ErrStopped = errors.ConstError("transport stopped")

// Handler receives the messages decoded from inbound connections.
type Handler interface {
	HandleMessage(mutex.Message)
}

// Config holds the parameters of a TCP transport.
type Config struct {
	Self     peers.ID
	Registry *peers.Registry

	// ListenAddr is the local address to listen on, such as ":5000". It is
	// ignored when Listener is set.
	ListenAddr string
	Listener   net.Listener

	Logger  *logging.Logger
	Clock   clock.Clock
	Metrics *metrics.Collector

	DialTimeout time.Duration
	IOTimeout   time.Duration
	// SendAttempts is the number of times a message is tried before it is
	// dropped. Successive attempts are spaced by a doubling delay, starting
	// at RetryDelay.
	SendAttempts int
	RetryDelay   time.Duration
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Registry == nil {
		return errors.NotValidf("nil Registry")
	}
	if c.Listener == nil && c.ListenAddr == "" {
		return errors.NotValidf("empty ListenAddr")
	}
	if c.SendAttempts < 0 {
		return errors.NotValidf("negative SendAttempts")
	}
	return nil
}

// TCP delivers mutex messages over TCP, one connection per message. Each peer
// has its own outbox and sender goroutine, so a slow peer only delays the
// messages meant for it.
type TCP struct {
	tomb tomb.Tomb

	self     peers.ID
	registry *peers.Registry
	listener net.Listener
	logger   *logging.Logger
	clock    clock.Clock
	metrics  *metrics.Collector

	dialTimeout time.Duration
	ioTimeout   time.Duration
	attempts    int
	retryDelay  time.Duration

	outboxes map[peers.ID]*utils.BufferedChan[mutex.Message]
	handlers chan Handler
}

// NewTCP binds the listener and starts the outboxes. Inbound connections are
// accepted once a handler is given to Serve.
func NewTCP(config Config) (*TCP, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}

	listener := config.Listener
	if listener == nil {
		var err error
		if listener, err = net.Listen("tcp", config.ListenAddr); err != nil {
			return nil, errors.Annotatef(err, "listening on %s", config.ListenAddr)
		}
	}

	t := &TCP{
		self:        config.Self,
		registry:    config.Registry,
		listener:    listener,
		logger:      config.Logger,
		clock:       config.Clock,
		metrics:     config.Metrics,
		dialTimeout: config.DialTimeout,
		ioTimeout:   config.IOTimeout,
		attempts:    config.SendAttempts,
		retryDelay:  config.RetryDelay,
		outboxes:    make(map[peers.ID]*utils.BufferedChan[mutex.Message]),
		handlers:    make(chan Handler),
	}
	if t.logger == nil {
		t.logger = logging.NewLogger("tcp")
	}
	if t.clock == nil {
		t.clock = clock.WallClock
	}
	if t.dialTimeout <= 0 {
		t.dialTimeout = defaultDialTimeout
	}
	if t.ioTimeout <= 0 {
		t.ioTimeout = defaultIOTimeout
	}
	if t.attempts == 0 {
		t.attempts = 1
	}
	if t.retryDelay <= 0 {
		t.retryDelay = defaultRetryDelay
	}

	for _, peer := range t.registry.All() {
		box := utils.NewBufferedChan[mutex.Message]()
		t.outboxes[peer.ID] = box
		t.tomb.Go(func() error {
			t.sendLoop(peer, box)
			return nil
		})
	}
	t.tomb.Go(t.acceptLoop)
	t.tomb.Go(func() error {
		<-t.tomb.Dying()
		_ = t.listener.Close()
		for _, box := range t.outboxes {
			box.Close()
		}
		return nil
	})

	t.logger.Infof("Listening on %s", t.listener.Addr())
	return t, nil
}

// Addr returns the address the transport listens on.
func (t *TCP) Addr() net.Addr {
	return t.listener.Addr()
}

// Serve starts dispatching inbound messages to h.
func (t *TCP) Serve(h Handler) {
	select {
	case t.handlers <- h:
	case <-t.tomb.Dying():
	}
}

// Send queues msg for the given peer. The returned error satisfies
// errors.Is(err, errors.NotFound) when the peer is unknown.
func (t *TCP) Send(to peers.ID, msg mutex.Message) error {
	box, ok := t.outboxes[to]
	if !ok {
		return errors.NotFoundf("peer %d", to)
	}
	select {
	case box.Inlet() <- msg:
		return nil
	case <-t.tomb.Dying():
		return ErrStopped
	}
}

// Broadcast queues msg for every peer.
func (t *TCP) Broadcast(msg mutex.Message) {
	for _, id := range t.registry.IDs() {
		if err := t.Send(id, msg); err != nil {
			t.logger.Warnf("Could not queue %v for %d: %v", msg, id, err)
		}
	}
}

// Kill is part of the worker.Worker interface.
func (t *TCP) Kill() {
	t.tomb.Kill(nil)
}

// Wait is part of the worker.Worker interface.
func (t *TCP) Wait() error {
	return t.tomb.Wait()
}

func (t *TCP) acceptLoop() error {
	var handler Handler
	select {
	case handler = <-t.handlers:
	case <-t.tomb.Dying():
		return nil
	}

	for {
		conn, err := t.listener.Accept()
		if err != nil {
			select {
			case <-t.tomb.Dying():
				return nil
			default:
			}
			return errors.Annotate(err, "accepting connections")
		}
		t.tomb.Go(func() error {
			t.receive(conn, handler)
			return nil
		})
	}
}

// receive reads the single message of an inbound connection.
func (t *TCP) receive(conn net.Conn, handler Handler) {
	codec := newConnCodec(conn)
	msg, err := codec.Receive(t.clock.Now().Add(t.ioTimeout))
	codec.Close()
	if err != nil {
		t.logger.Warnf("Dropping connection: %v", err)
		return
	}

	t.metrics.MessageReceived(msg.Kind.String())
	t.logger.Debugf("Received %v", msg)
	handler.HandleMessage(msg)
}

func (t *TCP) sendLoop(peer peers.Peer, box *utils.BufferedChan[mutex.Message]) {
	for {
		select {
		case <-t.tomb.Dying():
			return
		case msg, ok := <-box.Outlet():
			if !ok {
				return
			}
			t.deliver(peer, msg)
		}
	}
}

// deliver writes msg to the peer, retrying as configured. Failures are
// logged and the message dropped.
func (t *TCP) deliver(peer peers.Peer, msg mutex.Message) {
	err := retry.Call(retry.CallArgs{
		Func: func() error {
			return t.dial(peer.Address, msg)
		},
		Attempts:    t.attempts,
		Delay:       t.retryDelay,
		BackoffFunc: retry.DoubleDelay,
		Clock:       t.clock,
		Stop:        t.tomb.Dying(),
		NotifyFunc: func(err error, attempt int) {
			t.logger.Debugf("Attempt %d to send %v to %d failed: %v", attempt, msg, peer.ID, err)
		},
	})
	if err != nil {
		t.metrics.SendFailed(msg.Kind.String())
		t.logger.Warnf("Dropping %v for %d at %s: %v", msg, peer.ID, peer.Address, retry.LastError(err))
		return
	}
	t.metrics.MessageSent(msg.Kind.String())
}

func (t *TCP) dial(addr peers.Address, msg mutex.Message) error {
	dialer := net.Dialer{Timeout: t.dialTimeout}
	conn, err := dialer.DialContext(t.tomb.Context(context.Background()), "tcp", addr.String())
	if err != nil {
		return errors.Trace(err)
	}
	codec := newConnCodec(conn)
	defer codec.Close()
	return codec.Send(msg, t.clock.Now().Add(t.ioTimeout))
}
