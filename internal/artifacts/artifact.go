// Package artifacts persists the request and report documents of each run.
package artifacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"biomarket-backend/internal/shared/util"
)

type Kind string

const (
	KindRequest Kind = "request"
	KindReport  Kind = "report"
)

// Artifact is one JSON document tied to a request id.
type Artifact struct {
	ID        string
	Kind      Kind
	RequestID string
	Body      []byte
	CreatedAt time.Time
}

// Sink stores artifacts.
type Sink interface {
	Save(ctx context.Context, a Artifact) error
}

// New marshals v into an Artifact.
func New(kind Kind, requestID string, v any, now time.Time) (Artifact, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return Artifact{}, fmt.Errorf("marshal %s artifact: %w", kind, err)
	}
	return Artifact{
		ID:        uuid.NewString(),
		Kind:      kind,
		RequestID: requestID,
		Body:      body,
		CreatedAt: now.UTC(),
	}, nil
}

// Key is the object key: requests/<day>/<request id>-<artifact id>.json.
// Request ids come from a client header and are sanitized first.
func (a Artifact) Key() string {
	folder := "reports"
	if a.Kind == KindRequest {
		folder = "requests"
	}
	reqID, err := util.KeySegment(a.RequestID)
	if err != nil {
		reqID = "anonymous"
	}
	return fmt.Sprintf("%s/%s/%s-%s.json", folder, a.CreatedAt.Format("2006-01-02"), reqID, a.ID)
}

// Multi fans an artifact out to every sink and joins their errors.
type Multi []Sink

func (m Multi) Save(ctx context.Context, a Artifact) error {
	var errs []error
	for _, s := range m {
		if err := s.Save(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
