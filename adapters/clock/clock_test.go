package clock_test

import (
	"testing"
	"time"

	"github.com/artpar/hopgate/adapters/clock"
)

func TestReal_Now(t *testing.T) {
	c := clock.Real{}

	before := time.Now()
	got := c.Now()
	after := time.Now()

	if got.Before(before) || got.After(after) {
		t.Errorf("Now() = %v, expected between %v and %v", got, before, after)
	}
}

func TestFake_Now_Stable(t *testing.T) {
	fixed := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	c := clock.NewFake(fixed)

	for i := 0; i < 3; i++ {
		if got := c.Now(); !got.Equal(fixed) {
			t.Errorf("call %d: Now() = %v, want %v", i, got, fixed)
		}
	}
}

func TestFake_Set(t *testing.T) {
	c := clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	next := time.Date(2025, 12, 25, 10, 30, 0, 0, time.UTC)
	c.Set(next)

	if got := c.Now(); !got.Equal(next) {
		t.Errorf("Now() = %v, want %v", got, next)
	}
}

func TestFake_Advance(t *testing.T) {
	initial := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := clock.NewFake(initial)

	c.Advance(time.Hour)
	c.Advance(30 * time.Minute)

	want := initial.Add(time.Hour + 30*time.Minute)
	if got := c.Now(); !got.Equal(want) {
		t.Errorf("Now() = %v, want %v", got, want)
	}
}

func TestFake_ConcurrentAccess(t *testing.T) {
	c := clock.NewFake(time.Now())

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				_ = c.Now()
				c.Advance(time.Second)
			}
			done <- true
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
}
