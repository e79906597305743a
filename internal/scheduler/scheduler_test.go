package scheduler

import (
	"testing"
	"time"
)

type signalSweeper chan struct{}

func (s signalSweeper) Sweep() int {
	select {
	case s <- struct{}{}:
	default:
	}
	return 0
}

func TestStartRunsSweep(t *testing.T) {
	swept := make(signalSweeper, 1)
	other := make(signalSweeper, 1)
	s := New(time.Hour, nil, swept, other)
	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Stop()

	select {
	case <-swept:
	case <-time.After(3 * time.Second):
		t.Fatal("expected an immediate sweep after Start")
	}
	select {
	case <-other:
	case <-time.After(3 * time.Second):
		t.Fatal("expected every sweeper to run")
	}
}
