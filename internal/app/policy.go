package app

import "github.com/google/uuid"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropOldest
	EvictObserver
)

// Policy decides what happens when an observer's buffer is full.
type Policy interface {
	OnBackPressure(observer uuid.UUID) BackpressureAction
}

// LatestStatePolicy keeps slow observers but makes room for the newest state.
type LatestStatePolicy struct{}

func (LatestStatePolicy) OnBackPressure(uuid.UUID) BackpressureAction {
	return DropOldest
}

// StrictPolicy drops observers that fall behind.
type StrictPolicy struct{}

func (StrictPolicy) OnBackPressure(uuid.UUID) BackpressureAction {
	return EvictObserver
}
