package ioutils

import (
	"fmt"
	"io"
	"strings"

	"lamportd/internal/utils"
)

// MockIOStream is an IOStream driven from tests.
type MockIOStream interface {
	IOStream
	// SimulateNextInputLine provides the next line returned by ReadLine.
	SimulateNextInputLine(string)
	// SimulateEOF makes ReadLine return io.EOF once the pending lines are consumed.
	SimulateEOF()
	// InterceptNextPrintln blocks until the stream prints a line and returns it,
	// without its trailing newline.
	InterceptNextPrintln() string
	// Close releases the stream's goroutines.
	Close()
}

type mockStream struct {
	input  *utils.BufferedChan[string]
	output *utils.BufferedChan[string]
	eof    string
}

// NewMockStream creates a new mock IOStream instance.
func NewMockStream() MockIOStream {
	return &mockStream{
		input:  utils.NewBufferedChan[string](),
		output: utils.NewBufferedChan[string](),
		eof:    "\x00eof",
	}
}

func (m *mockStream) ReadLine() (string, error) {
	s, ok := <-m.input.Outlet()
	if !ok || s == m.eof {
		return "", io.EOF
	}
	return s, nil
}

func (m *mockStream) Println(values ...any) {
	m.Print(fmt.Sprintln(values...))
}

func (m *mockStream) Print(values ...any) {
	for _, line := range strings.SplitAfter(fmt.Sprint(values...), "\n") {
		if line != "" {
			m.output.Inlet() <- line
		}
	}
}

func (m *mockStream) SimulateNextInputLine(s string) {
	m.input.Inlet() <- s
}

func (m *mockStream) SimulateEOF() {
	m.input.Inlet() <- m.eof
}

func (m *mockStream) InterceptNextPrintln() string {
	return strings.TrimSuffix(<-m.output.Outlet(), "\n")
}

func (m *mockStream) Close() {
	m.input.Close()
	m.output.Close()
}
