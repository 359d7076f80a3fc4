package trace

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"

	"lamportd/internal/lamport"
	"lamportd/internal/peers"
)

// Kind tells whether an event marks entering or leaving the critical section.
type Kind string

const (
	Enter Kind = "ENTER"
	Exit  Kind = "EXIT"
)

// Event is one critical section boundary crossed by a process.
type Event struct {
	ID    string       `json:"id"`
	Node  peers.ID     `json:"node"`
	Kind  Kind         `json:"kind"`
	Clock lamport.Time `json:"clock"`
	Time  time.Time    `json:"time"`
}

// Recorder stores critical section events.
type Recorder interface {
	Record(Event) error
}

// FileRecorder appends events to a file, one JSON object per line.
type FileRecorder struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewFileRecorder opens (or creates) the trace file at path for appending.
func NewFileRecorder(path string) (*FileRecorder, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, errors.Annotate(err, "opening trace file")
	}
	return &FileRecorder{file: f, enc: json.NewEncoder(f)}, nil
}

// Record writes e to the file, assigning it an id if it has none.
func (r *FileRecorder) Record(e Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return errors.Trace(r.enc.Encode(e))
}

// Close closes the underlying file.
func (r *FileRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.file.Close()
}

// MemoryRecorder keeps events in memory. Several processes may share one.
type MemoryRecorder struct {
	mu     sync.Mutex
	events []Event
}

// Record appends e, assigning it an id if it has none.
func (r *MemoryRecorder) Record(e Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// Events returns a copy of the recorded events.
func (r *MemoryRecorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// ReadFile loads the events written by a FileRecorder.
func ReadFile(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Annotate(err, "opening trace file")
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for line := 1; scanner.Scan(); line++ {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var e Event
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return nil, errors.NewNotValid(err, fmt.Sprintf("trace line %d", line))
		}
		events = append(events, e)
	}
	return events, errors.Trace(scanner.Err())
}

// CheckExclusive verifies that no two processes were in the critical section
// at the same time, and that every process alternates ENTER and EXIT. Events
// are ordered by wall time; an EXIT and an ENTER with equal times do not
// overlap.
func CheckExclusive(events []Event) error {
	sorted := append([]Event(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Time.Equal(sorted[j].Time) {
			return sorted[i].Time.Before(sorted[j].Time)
		}
		return sorted[i].Kind == Exit && sorted[j].Kind == Enter
	})

	holder, held := peers.ID(0), false
	for _, e := range sorted {
		switch e.Kind {
		case Enter:
			if held {
				return errors.Errorf("process %d entered at clock %d while process %d was inside", e.Node, e.Clock, holder)
			}
			holder, held = e.Node, true
		case Exit:
			if !held || holder != e.Node {
				return errors.Errorf("process %d exited at clock %d without holding the critical section", e.Node, e.Clock)
			}
			held = false
		default:
			return errors.NotValidf("event kind %q", e.Kind)
		}
	}
	return nil
}
