package trace

import (
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"lamportd/internal/peers"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func at(node peers.ID, kind Kind, second int) Event {
	return Event{Node: node, Kind: kind, Clock: 0, Time: epoch.Add(time.Duration(second) * time.Second)}
}

func TestCheckExclusive(t *testing.T) {
	tests := []struct {
		name   string
		events []Event
		err    string
	}{{
		name:   "empty",
		events: nil,
	}, {
		name: "sequential",
		events: []Event{
			at(1, Enter, 3), at(1, Exit, 4),
			at(0, Enter, 1), at(0, Exit, 2),
		},
	}, {
		name: "handover at the same instant",
		events: []Event{
			at(1, Enter, 2), at(0, Exit, 2),
			at(0, Enter, 1), at(1, Exit, 3),
		},
	}, {
		name: "overlap",
		events: []Event{
			at(0, Enter, 1), at(1, Enter, 2),
			at(0, Exit, 3), at(1, Exit, 4),
		},
		err: "process 1 entered .* while process 0 was inside",
	}, {
		name:   "exit without enter",
		events: []Event{at(2, Exit, 1)},
		err:    "process 2 exited .*",
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			err := CheckExclusive(tt.events)
			if tt.err == "" {
				c.Assert(err, qt.IsNil)
			} else {
				c.Assert(err, qt.ErrorMatches, tt.err)
			}
		})
	}
}

func TestFileRecorderRoundTrip(t *testing.T) {
	c := qt.New(t)
	path := filepath.Join(c.TempDir(), "trace.jsonl")

	r, err := NewFileRecorder(path)
	c.Assert(err, qt.IsNil)
	c.Assert(r.Record(at(0, Enter, 1)), qt.IsNil)
	c.Assert(r.Record(at(0, Exit, 2)), qt.IsNil)
	c.Assert(r.Close(), qt.IsNil)

	events, err := ReadFile(path)
	c.Assert(err, qt.IsNil)
	c.Assert(events, qt.HasLen, 2)
	c.Assert(events[0].ID, qt.Not(qt.Equals), "")
	c.Assert(events[0].ID, qt.Not(qt.Equals), events[1].ID)
	c.Assert(events[1].Kind, qt.Equals, Exit)
	c.Assert(CheckExclusive(events), qt.IsNil)
}

func TestReadFileMissing(t *testing.T) {
	c := qt.New(t)
	_, err := ReadFile(filepath.Join(c.TempDir(), "absent.jsonl"))
	c.Assert(err, qt.ErrorMatches, "opening trace file: .*")
}

func TestMemoryRecorder(t *testing.T) {
	c := qt.New(t)
	var r MemoryRecorder
	c.Assert(r.Record(at(3, Enter, 1)), qt.IsNil)

	events := r.Events()
	c.Assert(events, qt.HasLen, 1)
	c.Assert(events[0].Node, qt.Equals, peers.ID(3))
	c.Assert(events[0].ID, qt.Not(qt.Equals), "")
}
