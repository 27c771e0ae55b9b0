// Package objstore archives fetched filings and audit records. Two drivers:
// a filesystem tree under the home dir and a NATS JetStream object store.
package objstore

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned when the named object does not exist.
var ErrNotFound = errors.New("object not found")

// Store is a write-mostly blob store keyed by slash-separated names.
type Store interface {
	// Put writes the object and returns its storage URI.
	Put(ctx context.Context, name string, data []byte) (string, error)

	// Get reads the object back. Returns ErrNotFound for unknown names.
	Get(ctx context.Context, name string) ([]byte, error)

	Close() error
}

// Open builds a Store for the given driver.
//
//	fs    — rooted at dir (required)
//	nats  — JetStream object store at url, bucket name in bucket
func Open(ctx context.Context, driver, dir, url, bucket string) (Store, error) {
	switch driver {
	case "", "fs":
		return NewFS(dir)
	case "nats":
		return OpenNATS(ctx, url, bucket)
	default:
		return nil, fmt.Errorf("unknown object store driver %q", driver)
	}
}
