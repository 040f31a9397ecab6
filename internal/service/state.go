package service

import "time"

// State is the service loop's mutable runtime state. It is owned by the loop
// goroutine; signal handling is folded into the same goroutine by draining a
// channel, so no locking is needed.
type State struct {
	Running bool
	Paused  bool

	ConsecutiveErrors int
	LastErrorTime     time.Time

	NetworkAvailable bool
	NetworkFailures  int
	LastNetworkCheck time.Time

	LastConfigCheck time.Time

	StartedAt      time.Time
	ProcessedTotal int
}
