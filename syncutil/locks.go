//go:build !deadlock

package syncutil

import "sync"

const detecting = false

type (
	Mutex   = sync.Mutex
	RWMutex = sync.RWMutex
)
