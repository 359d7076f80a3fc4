package utils

import (
	"testing"
	"time"
)

func TestBufferedChanKeepsOrder(t *testing.T) {
	c := NewBufferedChan[int]()
	defer c.Close()

	// Nothing reads yet: every write must still go through.
	for i := 0; i < 100; i++ {
		select {
		case c.Inlet() <- i:
		case <-time.After(time.Second):
			t.Fatalf("Write %d blocked", i)
		}
	}

	for i := 0; i < 100; i++ {
		if v := <-c.Outlet(); v != i {
			t.Fatalf("Expected %d, got %d", i, v)
		}
	}
}

func TestBufferedChanCloseClosesOutlet(t *testing.T) {
	c := NewBufferedChan[string]()
	c.Inlet() <- "dropped"
	c.Close()
	c.Close()

	select {
	case v, ok := <-c.Outlet():
		if ok {
			t.Fatalf("Outlet should be closed, got %q", v)
		}
	case <-time.After(time.Second):
		t.Fatal("Outlet was not closed")
	}
}
