package remote

import (
	"sync"

	"github.com/dmitrijs2005/drivesync/internal/common"
)

// Box holds the current Client behind a mutex. The client is swapped on
// session changes; consumers grab the current one per call instead of holding
// a reference across the swap.
type Box struct {
	mu     sync.RWMutex
	client Client
}

func NewBox() *Box {
	return &Box{}
}

// Set replaces the held client, closing the previous one if any.
func (b *Box) Set(c Client) {
	b.mu.Lock()
	prev := b.client
	b.client = c
	b.mu.Unlock()
	if prev != nil {
		_ = prev.Close()
	}
}

// Get returns the current client, or common.ErrNotFound when none is set.
func (b *Box) Get() (Client, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.client == nil {
		return nil, common.ErrNotFound
	}
	return b.client, nil
}
