package objstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// natsStore keeps objects in a JetStream object store bucket. The URI form
// is nats://<bucket>/<name>.
type natsStore struct {
	conn   *nats.Conn
	bucket jetstream.ObjectStore
	name   string
}

// OpenNATS connects to the NATS server and creates the bucket if missing.
func OpenNATS(ctx context.Context, url, bucket string) (Store, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	if bucket == "" {
		return nil, fmt.Errorf("object store bucket required")
	}
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	b, err := js.CreateOrUpdateObjectStore(ctx, jetstream.ObjectStoreConfig{
		Bucket:      bucket,
		Description: "archived filings and audit records",
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open object store bucket %s: %w", bucket, err)
	}
	return &natsStore{conn: conn, bucket: b, name: bucket}, nil
}

func (s *natsStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	if _, err := s.bucket.PutBytes(ctx, name, data); err != nil {
		return "", fmt.Errorf("put %s: %w", name, err)
	}
	return "nats://" + s.name + "/" + name, nil
}

func (s *natsStore) Get(ctx context.Context, name string) ([]byte, error) {
	data, err := s.bucket.GetBytes(ctx, name)
	if errors.Is(err, jetstream.ErrObjectNotFound) {
		return nil, ErrNotFound
	}
	return data, err
}

func (s *natsStore) Close() error {
	s.conn.Close()
	return nil
}
