package memory

import (
	"context"
	"io"
	"sync"
)

// Documents is an in-memory document store keyed like S3.
type Documents struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func NewDocuments() *Documents { return &Documents{blobs: map[string][]byte{}} }

func (d *Documents) Put(_ context.Context, key, _ string, body io.Reader) error {
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.blobs[key] = b
	return nil
}

func (d *Documents) Get(key string) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.blobs[key]
	return b, ok
}
