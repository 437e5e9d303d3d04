package syncutil_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"sophiatech.io/serialterm/syncutil"
)

type counter struct {
	mu syncutil.RWMutex
	n  int
}

func (c *counter) inc() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
}

func (c *counter) get() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.n
}

func TestLocksSerialize(t *testing.T) {
	t.Parallel()

	var c counter
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				c.inc()
				_ = c.get()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 5000, c.get())
}
