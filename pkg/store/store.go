// Package store persists committed plan snapshots.
//
// A [Snapshot] captures what a document looked like at one commit: the plan,
// the instance assignments, and the measurements the plan was computed from.
// Snapshots are append-only; [Store.Latest] returns the most recent one for
// a document.
//
// Two backends are provided:
//   - [FileStore]: one JSON file per snapshot under a directory, for the CLI
//   - [MongoStore]: a MongoDB collection, for servers sharing state
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/pageflow/pkg/core/layout"
)

// ErrNotFound is returned when no snapshot matches.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is one committed plan of a document.
type Snapshot struct {
	ID           string                       `json:"id" bson:"_id"`
	DocumentID   string                       `json:"document_id" bson:"document_id"`
	Plan         layout.Plan                  `json:"plan" bson:"plan"`
	Assignments  map[string]layout.Assignment `json:"assignments,omitempty" bson:"assignments,omitempty"`
	Measurements []layout.Measurement         `json:"measurements,omitempty" bson:"measurements,omitempty"`
	CreatedAt    time.Time                    `json:"created_at" bson:"created_at"`
}

// NewSnapshot stamps a snapshot of plan with a fresh ID. Measurements are
// stored in key order.
func NewSnapshot(documentID string, plan layout.Plan, assignments map[string]layout.Assignment, m layout.Measurements) *Snapshot {
	var ms []layout.Measurement
	for _, k := range m.SortedKeys() {
		ms = append(ms, layout.Measurement{Key: k, Height: m[k]})
	}
	return &Snapshot{
		ID:           uuid.NewString(),
		DocumentID:   documentID,
		Plan:         plan.Clone(),
		Assignments:  assignments,
		Measurements: ms,
		CreatedAt:    time.Now().UTC(),
	}
}

// Store is the interface for snapshot backends.
type Store interface {
	// Save stores a snapshot. Saving an existing ID replaces it.
	Save(ctx context.Context, snap *Snapshot) error

	// Get returns the snapshot with the given ID or ErrNotFound.
	Get(ctx context.Context, id string) (*Snapshot, error)

	// Latest returns the newest snapshot of a document or ErrNotFound.
	Latest(ctx context.Context, documentID string) (*Snapshot, error)

	// List returns a document's snapshots, newest first, at most limit of
	// them. A limit of zero means all.
	List(ctx context.Context, documentID string, limit int) ([]*Snapshot, error)

	// Delete removes every snapshot of a document.
	Delete(ctx context.Context, documentID string) error

	// Close releases backend resources.
	Close() error
}
