package mutex

import (
	"context"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/worker/v4/catacomb"

	"lamportd/internal/lamport"
	"lamportd/internal/logging"
	"lamportd/internal/metrics"
	"lamportd/internal/peers"
	"lamportd/internal/trace"
)

// State is the position of the local process in the protocol.
type State int

const (
	Idle State = iota
	Requesting
	Held
	Releasing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Requesting:
		return "REQUESTING"
	case Held:
		return "HELD"
	case Releasing:
		return "RELEASING"
	default:
		return "INVALID"
	}
}

// Config holds the dependencies of an Engine.
type Config struct {
	Self     peers.ID
	Registry *peers.Registry
	Network  Network

	// Clock stamps messages. A fresh clock is used when nil.
	Clock lamport.Clock
	// WallClock measures waiting times. Defaults to clock.WallClock.
	WallClock clock.Clock
	Logger    *logging.Logger
	Metrics   *metrics.Collector
	Trace     trace.Recorder
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Registry == nil {
		return errors.NotValidf("nil Registry")
	}
	if c.Network == nil {
		return errors.NotValidf("nil Network")
	}
	if c.Registry.Contains(c.Self) {
		return errors.NotValidf("registry containing the local process %d", c.Self)
	}
	return nil
}

// Status is a snapshot of the engine's state.
type Status struct {
	Self     peers.ID
	State    State
	Clock    lamport.Time
	Peers    []peers.Peer
	Queue    []Request
	Replies  []peers.ID
	Deferred []peers.ID
}

// grant is handed out for each local request and closed once it is granted.
type grant struct {
	ready     chan struct{}
	abandoned bool
}

type requestOp struct {
	grant  *grant
	result chan error
}

type grantOp struct {
	grant *grant
	done  chan struct{}
}

// Engine runs the Lamport mutual exclusion protocol for the local process.
// All protocol state is owned by a single goroutine, fed through channels.
type Engine struct {
	catacomb catacomb.Catacomb

	self      peers.ID
	registry  *peers.Registry
	network   Network
	clock     lamport.Clock
	wallClock clock.Clock
	log       *logging.Logger
	metrics   *metrics.Collector
	trace     trace.Recorder

	requests chan requestOp
	releases chan grantOp
	abandons chan grantOp
	inbound  chan Message
	statuses chan chan Status

	// Owned by the loop goroutine.
	state       State
	queue       *PendingQueue
	replies     *ReplyTracker
	deferred    set.Ints
	parked      map[peers.ID]int
	own         Request
	current     *grant
	requestedAt time.Time
}

// NewEngine starts an engine for the given configuration.
func NewEngine(config Config) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	if config.Clock == nil {
		config.Clock = lamport.NewLamportClock()
	}
	if config.WallClock == nil {
		config.WallClock = clock.WallClock
	}
	if config.Logger == nil {
		config.Logger = logging.NewLogger("mutex")
	}

	e := &Engine{
		self:      config.Self,
		registry:  config.Registry,
		network:   config.Network,
		clock:     config.Clock,
		wallClock: config.WallClock,
		log:       config.Logger,
		metrics:   config.Metrics,
		trace:     config.Trace,
		requests:  make(chan requestOp),
		releases:  make(chan grantOp),
		abandons:  make(chan grantOp),
		inbound:   make(chan Message),
		statuses:  make(chan chan Status),
		state:     Idle,
		queue:     NewPendingQueue(),
		replies:   NewReplyTracker(),
		deferred:  set.NewInts(),
		parked:    make(map[peers.ID]int),
	}
	if err := catacomb.Invoke(catacomb.Plan{
		Site: &e.catacomb,
		Work: e.loop,
	}); err != nil {
		return nil, errors.Trace(err)
	}
	return e, nil
}

// Kill is part of the worker.Worker interface.
func (e *Engine) Kill() {
	e.catacomb.Kill(nil)
}

// Wait is part of the worker.Worker interface.
func (e *Engine) Wait() error {
	return e.catacomb.Wait()
}

// Acquire implements Mutex. It fails with ErrRequestOutstanding when a request
// is already in progress. If ctx ends before the grant, the request stays in
// the protocol and is released as soon as it is granted.
func (e *Engine) Acquire(ctx context.Context) (func(), error) {
	g := &grant{ready: make(chan struct{})}
	if err := e.submit(ctx, g); err != nil {
		return nil, err
	}

	select {
	case <-g.ready:
		return e.releaseFunc(g), nil
	case <-e.catacomb.Dying():
		return nil, ErrEngineStopped
	case <-ctx.Done():
		e.sendGrantOp(e.abandons, g)
		return nil, ctx.Err()
	}
}

// Request registers a local request and returns immediately. Once the
// critical section is granted, action runs on its own goroutine and the
// section is released when it returns.
func (e *Engine) Request(action func()) error {
	g := &grant{ready: make(chan struct{})}
	if err := e.submit(context.Background(), g); err != nil {
		return err
	}

	go func() {
		select {
		case <-g.ready:
		case <-e.catacomb.Dying():
			return
		}
		action()
		e.sendGrantOp(e.releases, g)
	}()
	return nil
}

// HandleMessage feeds an inbound message to the engine. Messages arriving
// after the engine started dying are dropped.
func (e *Engine) HandleMessage(msg Message) {
	select {
	case e.inbound <- msg:
	case <-e.catacomb.Dying():
	}
}

// Status returns a snapshot of the protocol state.
func (e *Engine) Status() (Status, error) {
	reply := make(chan Status, 1)
	select {
	case e.statuses <- reply:
	case <-e.catacomb.Dying():
		return Status{}, ErrEngineStopped
	}
	return <-reply, nil
}

func (e *Engine) submit(ctx context.Context, g *grant) error {
	result := make(chan error, 1)
	select {
	case e.requests <- requestOp{grant: g, result: result}:
	case <-e.catacomb.Dying():
		return ErrEngineStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-result
}

func (e *Engine) releaseFunc(g *grant) func() {
	var once sync.Once
	return func() {
		once.Do(func() { e.sendGrantOp(e.releases, g) })
	}
}

func (e *Engine) sendGrantOp(ch chan grantOp, g *grant) {
	op := grantOp{grant: g, done: make(chan struct{})}
	select {
	case ch <- op:
	case <-e.catacomb.Dying():
		return
	}
	<-op.done
}

func (e *Engine) loop() error {
	e.log.Infof("Mutex engine for process %d ready with %d peers", e.self, e.registry.Len())
	for {
		select {
		case <-e.catacomb.Dying():
			return e.catacomb.ErrDying()
		case op := <-e.requests:
			op.result <- e.handleRequest(op.grant)
		case op := <-e.releases:
			e.handleRelease(op.grant)
			close(op.done)
		case op := <-e.abandons:
			e.handleAbandon(op.grant)
			close(op.done)
		case msg := <-e.inbound:
			if err := e.handleMessage(msg); err != nil {
				e.metrics.ProtocolViolation()
				e.log.Errorf("Stopping: %v", err)
				return errors.Trace(err)
			}
		case reply := <-e.statuses:
			reply <- e.status()
		}

		e.applyParkedReleases()
		e.checkEntry()
		e.metrics.QueueLength(e.queue.Len())
	}
}

// handleRequest starts a new local request.
func (e *Engine) handleRequest(g *grant) error {
	if e.state != Idle {
		return ErrRequestOutstanding
	}

	t := e.clock.Tick()
	e.own = Request{Timestamp: t, Sender: e.self}
	e.current = g
	e.requestedAt = e.wallClock.Now()
	e.replies.Reset()
	e.state = Requesting
	e.metrics.RequestIssued()

	e.log.Infof("Requesting the critical section at %v", t)
	e.network.Broadcast(Message{Timestamp: t, Sender: e.self, Kind: KindRequest})
	e.queue.Insert(e.own)
	return nil
}

// handleRelease leaves the critical section, if g currently holds it.
func (e *Engine) handleRelease(g *grant) {
	if e.state != Held || e.current != g {
		return
	}
	e.state = Releasing

	t := e.clock.Tick()
	e.record(trace.Exit, t)
	e.metrics.Exited()

	e.queue.Remove(e.own)
	e.replies.Reset()
	e.current = nil

	e.log.Infof("Releasing the critical section at %v", t)
	e.network.Broadcast(Message{Timestamp: t, Sender: e.self, Kind: KindRelease})
	for _, id := range e.deferred.SortedValues() {
		e.send(peers.ID(id), Message{Timestamp: t, Sender: e.self, Kind: KindReply})
	}
	e.deferred = set.NewInts()
	e.state = Idle
}

func (e *Engine) handleAbandon(g *grant) {
	if e.current != g {
		return
	}
	switch e.state {
	case Held:
		e.log.Infof("Caller gave up after the grant, releasing")
		e.handleRelease(g)
	case Requesting:
		g.abandoned = true
	}
}

func (e *Engine) handleMessage(msg Message) error {
	if msg.Sender == e.self || !e.registry.Contains(msg.Sender) {
		e.log.Warnf("Ignoring %v from unknown process %d", msg.Kind, msg.Sender)
		return nil
	}

	now := e.clock.Observe(msg.Timestamp)
	e.log.Debugf("Received %v, clock now %v", msg, now)

	switch msg.Kind {
	case KindRequest:
		req := Request{Timestamp: msg.Timestamp, Sender: msg.Sender}
		e.queue.Insert(req)
		if e.state == Held || (e.state == Requesting && e.own.Less(req)) {
			e.log.Debugf("Deferring reply to %d, own request %v has priority", msg.Sender, e.own)
			e.deferred.Add(int(msg.Sender))
			return nil
		}
		e.send(msg.Sender, Message{Timestamp: now, Sender: e.self, Kind: KindReply})

	case KindReply:
		if e.state != Requesting {
			e.log.Debugf("Ignoring reply from %d while %v", msg.Sender, e.state)
			return nil
		}
		e.replies.Record(msg.Sender)

	case KindRelease:
		if !e.queue.Contains(msg.Sender) {
			return errors.Annotatef(ErrProtocolViolation, "release from %d at %v without a pending request", msg.Sender, msg.Timestamp)
		}
		if _, err := e.queue.PopIfMatches(msg.Sender); err != nil {
			// The release overtook the one of an earlier request.
			e.log.Debugf("Parking release from %d: %v", msg.Sender, err)
			e.parked[msg.Sender]++
		}

	default:
		e.log.Warnf("Ignoring message of unknown kind %v from %d", msg.Kind, msg.Sender)
	}
	return nil
}

// applyParkedReleases pops parked releases that have reached the head.
func (e *Engine) applyParkedReleases() {
	for {
		head, ok := e.queue.Peek()
		if !ok || e.parked[head.Sender] == 0 {
			return
		}
		if _, err := e.queue.PopIfMatches(head.Sender); err != nil {
			return
		}
		if e.parked[head.Sender]--; e.parked[head.Sender] == 0 {
			delete(e.parked, head.Sender)
		}
	}
}

// checkEntry enters the critical section when the local request is the
// smallest known and every peer replied to it.
func (e *Engine) checkEntry() {
	if e.state != Requesting {
		return
	}
	head, ok := e.queue.Peek()
	if !ok || head != e.own || e.replies.Count() != e.registry.Len() {
		return
	}

	e.state = Held
	t := e.clock.Tick()
	e.metrics.Entered(e.wallClock.Now().Sub(e.requestedAt))
	e.record(trace.Enter, t)
	e.log.Infof("Entering the critical section at %v", t)

	if e.current.abandoned {
		e.handleRelease(e.current)
		return
	}
	close(e.current.ready)
}

func (e *Engine) send(to peers.ID, msg Message) {
	if err := e.network.Send(to, msg); err != nil {
		e.log.Warnf("Could not send %v to %d: %v", msg, to, err)
	}
}

func (e *Engine) record(kind trace.Kind, t lamport.Time) {
	if e.trace == nil {
		return
	}
	err := e.trace.Record(trace.Event{
		Node:  e.self,
		Kind:  kind,
		Clock: t,
		Time:  e.wallClock.Now(),
	})
	if err != nil {
		e.log.Warnf("Could not record %s event: %v", kind, err)
	}
}

func (e *Engine) status() Status {
	return Status{
		Self:     e.self,
		State:    e.state,
		Clock:    e.clock.Time(),
		Peers:    e.registry.All(),
		Queue:    e.queue.Snapshot(),
		Replies:  e.replies.Values(),
		Deferred: toIDs(e.deferred),
	}
}
