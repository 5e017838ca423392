package artifacts

import (
	"bytes"
	"context"
	"fmt"

	"biomarket-backend/internal/shared/storage/object"
)

// ObjectSink writes artifacts to an object store (local disk or S3).
type ObjectSink struct {
	Store object.ObjectStore
}

func (s *ObjectSink) Save(ctx context.Context, a Artifact) error {
	if _, err := s.Store.Put(ctx, a.Key(), "application/json", bytes.NewReader(a.Body)); err != nil {
		return fmt.Errorf("put %s: %w", a.Key(), err)
	}
	return nil
}
