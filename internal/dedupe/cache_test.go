// ABOUTME: Tests for the TTL dedupe cache

package dedupe

import (
	"fmt"
	"testing"
	"time"
)

func TestCheckAndMark(t *testing.T) {
	c := New(time.Minute, 10)

	if c.CheckAndMark("a") {
		t.Error("first sighting reported as seen")
	}
	if !c.CheckAndMark("a") {
		t.Error("second sighting not reported as seen")
	}
	if c.CheckAndMark("b") {
		t.Error("unrelated key reported as seen")
	}
}

func TestExpiry(t *testing.T) {
	c := New(20*time.Millisecond, 10)

	c.CheckAndMark("short-lived")
	time.Sleep(30 * time.Millisecond)

	if c.CheckAndMark("short-lived") {
		t.Error("expired key still reported as seen")
	}
}

func TestEviction(t *testing.T) {
	c := New(time.Minute, 3)

	for i := 0; i < 4; i++ {
		c.CheckAndMark(fmt.Sprintf("k%d", i))
	}

	// The newest keys survive; the oldest was evicted to make room.
	for _, k := range []string{"k1", "k2", "k3"} {
		if !c.CheckAndMark(k) {
			t.Errorf("key %s evicted prematurely", k)
		}
	}
	if c.CheckAndMark("k0") {
		t.Error("evicted key still reported as seen")
	}
}
