package lamport

import (
	"sync"
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestTickFromZero(t *testing.T) {
	clock := NewLamportClock()
	if now := clock.Time(); now != 0 {
		t.Fatalf("New clock should start at 0, got %d", now)
	}

	for want := Time(1); want <= 50; want++ {
		if got := clock.Tick(); got != want {
			t.Fatalf("Tick %d returned %d", want, got)
		}
	}
	if now := clock.Time(); now != 50 {
		t.Errorf("Time should not advance the clock, got %d", now)
	}
}

func TestObserve(t *testing.T) {
	tests := []struct {
		name          string
		currentTime   Time
		remoteTime    Time
		expectedAfter Time
	}{
		{
			name:          "observe_smaller_time",
			currentTime:   5,
			remoteTime:    3,
			expectedAfter: 6,
		},
		{
			name:          "observe_larger_time",
			currentTime:   5,
			remoteTime:    10,
			expectedAfter: 11,
		},
		{
			name:          "observe_equal_time",
			currentTime:   5,
			remoteTime:    5,
			expectedAfter: 6,
		},
		{
			name:          "observe_from_zero",
			currentTime:   0,
			remoteTime:    0,
			expectedAfter: 1,
		},
		{
			name:          "observe_one_ahead",
			currentTime:   41,
			remoteTime:    42,
			expectedAfter: 43,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &LamportClock{time: tt.currentTime}

			returned := clock.Observe(tt.remoteTime)
			if returned != tt.expectedAfter {
				t.Errorf("Expected Observe to return %d, got %d", tt.expectedAfter, returned)
			}
			if after := clock.Time(); after != tt.expectedAfter {
				t.Errorf("Expected time %d after observe, got %d", tt.expectedAfter, after)
			}
		})
	}
}

func TestConcurrentOperations(t *testing.T) {
	clock := NewLamportClock()
	const numGoroutines = 100
	const opsPerGoroutine = 1000

	var wg sync.WaitGroup
	wg.Add(numGoroutines * 2)

	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < opsPerGoroutine; j++ {
				_ = clock.Tick()
			}
		}()
	}

	for i := 0; i < numGoroutines; i++ {
		go func(routine int) {
			defer wg.Done()
			for j := 0; j < opsPerGoroutine; j++ {
				clock.Observe(Time(routine*opsPerGoroutine + j))
			}
		}(i)
	}

	wg.Wait()

	// Every operation adds at least one.
	finalTime := clock.Time()
	minExpectedTime := Time(numGoroutines * opsPerGoroutine * 2)
	if finalTime < minExpectedTime {
		t.Errorf("Expected final time to be at least %d, got %d", minExpectedTime, finalTime)
	}
}

func TestMonotonicity(t *testing.T) {
	clock := NewLamportClock()

	var lastTime Time
	for i := 0; i < 1000; i++ {
		var currentTime Time

		if i%2 == 0 {
			currentTime = clock.Tick()
		} else {
			currentTime = clock.Observe(Time(i % 7))
		}

		if currentTime <= lastTime {
			t.Errorf("Time decreased or stayed same: previous=%d, current=%d", lastTime, currentTime)
		}
		lastTime = currentTime
	}
}

// Three processes pass one message along a chain and back. Every receive
// must be stamped after its send, and the round trip must leave the origin
// ahead of everything it caused.
func TestHappenedBeforeChain(t *testing.T) {
	clocks := []Clock{NewLamportClock(), NewLamportClock(), NewLamportClock()}
	clocks[2].Observe(20) // process 2 starts far ahead

	stamp := clocks[0].Tick()
	for _, hop := range []int{1, 2, 0} {
		received := clocks[hop].Observe(stamp)
		if received <= stamp {
			t.Fatalf("Process %d received %d at %d", hop, stamp, received)
		}
		stamp = clocks[hop].Tick()
	}

	if origin := clocks[0].Time(); origin <= 21 {
		t.Errorf("Origin should have moved past the far clock, got %d", origin)
	}
	for i, c := range clocks[1:] {
		if c.Time() >= clocks[0].Time() {
			t.Errorf("Process %d at %d is not behind the origin at %d", i+1, c.Time(), clocks[0].Time())
		}
	}
}
