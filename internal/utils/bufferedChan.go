package utils

import "sync"

// BufferedChan is a channel with an unbounded buffer: writes to Inlet do not
// wait for the reader of Outlet.
type BufferedChan[T any] struct {
	inChan  chan T
	outChan chan T
	quit    chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewBufferedChan creates a new BufferedChan instance.
func NewBufferedChan[T any]() *BufferedChan[T] {
	c := BufferedChan[T]{
		inChan:  make(chan T),
		outChan: make(chan T),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go c.run()
	return &c
}

// Inlet returns the input side. Writes after Close block forever, so writers
// that may outlive the BufferedChan should select on another channel too.
func (b *BufferedChan[T]) Inlet() chan<- T {
	return b.inChan
}

// Outlet returns the output side. It is closed by Close; values still
// buffered at that time are dropped.
func (b *BufferedChan[T]) Outlet() <-chan T {
	return b.outChan
}

// Close stops the BufferedChan and waits for its goroutine to exit. It may be
// called more than once.
func (b *BufferedChan[T]) Close() {
	b.once.Do(func() { close(b.quit) })
	<-b.done
}

func (b *BufferedChan[T]) run() {
	defer close(b.done)
	defer close(b.outChan)

	var buffer []T
	for {
		var out chan T
		var next T
		if len(buffer) > 0 {
			out = b.outChan
			next = buffer[0]
		}

		select {
		case <-b.quit:
			return
		case msg := <-b.inChan:
			buffer = append(buffer, msg)
		case out <- next:
			var zero T
			buffer[0] = zero
			buffer = buffer[1:]
		}
	}
}
