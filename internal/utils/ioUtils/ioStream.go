package ioutils

// IOStream abstracts the console, so that command loops can be driven from tests.
type IOStream interface {
	// ReadLine returns the next line of input, without its line terminator.
	// It returns io.EOF once the input is exhausted.
	ReadLine() (string, error)
	// Println prints the given values followed by a newline.
	Println(...any)
	// Print prints the given values. Items are not space-separated.
	Print(...any)
}
