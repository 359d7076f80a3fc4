package ioutils

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestStreamReadLine(t *testing.T) {
	s := NewStream(strings.NewReader("REQUEST\r\nstatus\nEXIT"), io.Discard)

	for _, expected := range []string{"REQUEST", "status", "EXIT"} {
		line, err := s.ReadLine()
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if line != expected {
			t.Errorf("Expected %q, got %q", expected, line)
		}
	}

	if _, err := s.ReadLine(); err != io.EOF {
		t.Errorf("Expected io.EOF, got %v", err)
	}
}

func TestStreamPrint(t *testing.T) {
	var out bytes.Buffer
	s := NewStream(strings.NewReader(""), &out)

	s.Println("clock:", 3)
	s.Print("a", "b")

	if got := out.String(); got != "clock: 3\nab" {
		t.Errorf("Unexpected output %q", got)
	}
}

func TestMockStream(t *testing.T) {
	m := NewMockStream()
	defer m.Close()

	m.SimulateNextInputLine("REQUEST")
	m.SimulateEOF()

	if line, err := m.ReadLine(); err != nil || line != "REQUEST" {
		t.Errorf("Expected REQUEST, got %q (%v)", line, err)
	}
	if _, err := m.ReadLine(); err != io.EOF {
		t.Errorf("Expected io.EOF, got %v", err)
	}

	m.Println("first\nsecond")
	if line := m.InterceptNextPrintln(); line != "first" {
		t.Errorf("Expected first, got %q", line)
	}
	if line := m.InterceptNextPrintln(); line != "second" {
		t.Errorf("Expected second, got %q", line)
	}
}
