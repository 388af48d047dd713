package services

import "sync/atomic"

// IDAllocator hands out listing ids starting at 1. Ids are never reused.
type IDAllocator struct {
	last atomic.Uint64
}

func NewIDAllocator() *IDAllocator {
	return &IDAllocator{}
}

func (a *IDAllocator) Next() uint64 {
	return a.last.Add(1)
}
