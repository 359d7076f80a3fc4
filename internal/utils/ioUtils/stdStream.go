package ioutils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

type stream struct {
	reader *bufio.Reader
	mu     sync.Mutex
	writer io.Writer
}

// NewStdStream returns an IOStream over the process' standard input and output.
func NewStdStream() IOStream {
	return NewStream(os.Stdin, os.Stdout)
}

// NewStream returns an IOStream reading lines from r and printing to w.
func NewStream(r io.Reader, w io.Writer) IOStream {
	return &stream{
		reader: bufio.NewReader(r),
		writer: w,
	}
}

func (s *stream) ReadLine() (string, error) {
	line, err := s.reader.ReadString('\n')
	if err == io.EOF && len(line) > 0 {
		// Last line without a terminator.
		err = nil
	}
	return strings.TrimRight(line, "\r\n"), err
}

func (s *stream) Println(values ...any) {
	s.Print(fmt.Sprintln(values...))
}

func (s *stream) Print(values ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprint(s.writer, values...)
}
