package server

import (
	"fmt"
	"io"
	"strings"

	"github.com/juju/errors"

	"lamportd/internal/mutex"
	"lamportd/internal/utils/ioUtils"
)

const usage = "Commands: REQUEST, STATUS, EXIT"

// RunConsole reads commands from stream until EXIT or the end of input.
// Leaving the console does not stop the node.
func (s *Server) RunConsole(stream ioutils.IOStream) error {
	stream.Println(usage)
	for {
		line, err := stream.ReadLine()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Annotate(err, "reading command")
		}

		switch strings.ToUpper(strings.TrimSpace(line)) {
		case "":
		case "REQUEST":
			s.request(stream)
		case "STATUS":
			s.printStatus(stream)
		case "EXIT":
			stream.Println("Console closed")
			return nil
		default:
			stream.Println(usage)
		}
	}
}

// request asks for the critical section, which is then held for the
// configured duration.
func (s *Server) request(stream ioutils.IOStream) {
	err := s.engine.Request(func() {
		stream.Println(fmt.Sprintf("%v: Entering Critical Section", s.clock.Time()))
		select {
		case <-s.wallClock.After(s.config.CSDuration):
		case <-s.catacomb.Dying():
		}
		stream.Println(fmt.Sprintf("%v: Exiting Critical Section", s.clock.Time()))
	})
	switch {
	case err == nil:
	case errors.Is(err, mutex.ErrRequestOutstanding):
		stream.Println("A request is already outstanding")
	default:
		stream.Println(fmt.Sprintf("Request failed: %v", err))
	}
}

func (s *Server) printStatus(stream ioutils.IOStream) {
	status, err := s.engine.Status()
	if err != nil {
		stream.Println(fmt.Sprintf("Status unavailable: %v", err))
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Process %d on port %d: %v, clock %v\n", status.Self, s.config.Port, status.State, status.Clock)
	b.WriteString("Peers:")
	for _, p := range status.Peers {
		fmt.Fprintf(&b, " %d@%s", p.ID, p.Address)
	}
	b.WriteString("\nQueue:")
	for _, r := range status.Queue {
		fmt.Fprintf(&b, " %v", r)
	}
	b.WriteString("\nReplies:")
	for _, id := range status.Replies {
		fmt.Fprintf(&b, " %d", id)
	}
	stream.Println(b.String())
}
