package metrics

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestCollect(t *testing.T) {
	c := NewCollector(time.Second, zap.NewNop())
	if c.Last() != nil {
		t.Fatal("expected no snapshot before the first sample")
	}

	c.SetStage("parse")
	s := c.Collect()
	if s.Stage != "parse" {
		t.Errorf("expected stage parse, got %q", s.Stage)
	}
	if c.Last() != s {
		t.Error("Last should return the latest snapshot")
	}
	if c.PeakRSS() != s.ProcessRSS {
		t.Errorf("expected peak %d, got %d", s.ProcessRSS, c.PeakRSS())
	}
}

func TestNewCollectorMinimumInterval(t *testing.T) {
	c := NewCollector(time.Millisecond, zap.NewNop())
	if c.interval != 30*time.Second {
		t.Errorf("expected fallback interval, got %v", c.interval)
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	c := NewCollector(time.Second, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		c.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("collector did not stop")
	}
	if c.Last() == nil {
		t.Error("expected an initial sample")
	}
}
