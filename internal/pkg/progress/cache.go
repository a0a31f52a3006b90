package progress

import (
	"context"
	"sync"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
)

// Cursor is the ephemeral per-call progress snapshot
type Cursor struct {
	Questions []string
	Index     int
}

// Cache keeps per-interview cursors in memory.
// It is a derived index over the durable interview record -
// entries die with the call and callers rebuild from the store on miss.
type Cache struct {
	lock sync.Mutex
	data map[string]*entry
	ttl  time.Duration
	now  func() time.Time
}

type entry struct {
	cursor  Cursor
	updated time.Time
}

// NewCache creates the cursor cache
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = time.Minute * 30
	}
	return &Cache{data: map[string]*entry{}, ttl: ttl, now: time.Now}
}

// Set stores the cursor for an interview
func (c *Cache) Set(id string, cur Cursor) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.data[id] = &entry{cursor: cur, updated: c.now()}
}

// Get returns the cursor for an interview
func (c *Cache) Get(id string) (Cursor, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	e, ok := c.data[id]
	if !ok {
		return Cursor{}, false
	}
	return e.cursor, true
}

// Delete drops the cursor, called when the interview reaches a terminal status
func (c *Cache) Delete(id string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	delete(c.data, id)
}

// Len returns the count of live cursors
func (c *Cache) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.data)
}

// StartSweep drops abandoned cursors - calls that never produced a hangup event
func (c *Cache) StartSweep(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := c.sweep(); n > 0 {
					goapp.Log.Info().Int("count", n).Msg("dropped expired cursors")
				}
			case <-ctx.Done():
				goapp.Log.Info().Msg("stopped cursor sweep")
				return
			}
		}
	}()
}

func (c *Cache) sweep() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	limit := c.now().Add(-c.ttl)
	res := 0
	for id, e := range c.data {
		if e.updated.Before(limit) {
			delete(c.data, id)
			res++
		}
	}
	return res
}
