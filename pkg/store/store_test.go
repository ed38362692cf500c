package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/pageflow/pkg/core/layout"
)

func testPlan() layout.Plan {
	return layout.Plan{
		Pages: []layout.Page{{
			Number: 1,
			Columns: []layout.Column{{
				Index: 1,
				Entries: []layout.Entry{{
					Key:        layout.BlockKey("a"),
					InstanceID: "a",
					Height:     100,
					Home:       layout.Region(1, 1),
					Region:     layout.Region(1, 1),
					Span:       &layout.Span{Top: 0, Bottom: 100, Height: 100},
				}},
			}},
		}},
		Signature:    "sig",
		RegionHeight: 800,
		ColumnCount:  1,
	}
}

func TestNewSnapshot(t *testing.T) {
	m := layout.Measurements{layout.BlockKey("b"): 20, layout.BlockKey("a"): 10}
	snap := NewSnapshot("doc", testPlan(), nil, m)
	if snap.ID == "" {
		t.Error("ID is empty")
	}
	want := []layout.Measurement{
		{Key: layout.BlockKey("a"), Height: 10},
		{Key: layout.BlockKey("b"), Height: 20},
	}
	if diff := cmp.Diff(want, snap.Measurements); diff != "" {
		t.Errorf("measurements mismatch (-want +got):\n%s", diff)
	}
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	defer s.Close()

	if _, err := s.Latest(ctx, "doc"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Latest on empty store err = %v, want ErrNotFound", err)
	}

	first := NewSnapshot("doc", testPlan(), map[string]layout.Assignment{
		"a": {Home: layout.Region(1, 1), Actual: layout.Region(1, 1)},
	}, nil)
	second := NewSnapshot("doc", testPlan(), nil, nil)
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	for _, snap := range []*Snapshot{first, second} {
		if err := s.Save(ctx, snap); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	latest, err := s.Latest(ctx, "doc")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest.ID != second.ID {
		t.Errorf("Latest = %s, want %s", latest.ID, second.ID)
	}

	got, err := s.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if diff := cmp.Diff(first.Plan, got.Plan); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}
	if got.Assignments["a"].Actual != layout.Region(1, 1) {
		t.Errorf("assignment = %+v", got.Assignments["a"])
	}

	all, err := s.List(ctx, "doc", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("List = %d snapshots, want 2", len(all))
	}

	if err := s.Delete(ctx, "doc"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, first.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete err = %v, want ErrNotFound", err)
	}
}

func TestNewFileStoreEmptyDir(t *testing.T) {
	if _, err := NewFileStore(""); err == nil {
		t.Error("expected error for empty directory")
	}
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("PAGEFLOW_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("PAGEFLOW_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	s, err := NewMongoStore(ctx, MongoOptions{URI: uri, Database: "pageflow_test"})
	if err != nil {
		t.Fatalf("NewMongoStore: %v", err)
	}
	defer s.Close()

	docID := "doc-" + time.Now().Format("150405.000000")
	defer s.Delete(ctx, docID)

	snap := NewSnapshot(docID, testPlan(), nil, layout.Measurements{layout.BlockKey("a"): 100})
	if err := s.Save(ctx, snap); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Latest(ctx, docID)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if got.ID != snap.ID || got.Plan.PageCount() != 1 {
		t.Errorf("Latest = %+v", got)
	}
}

func TestMongoStoreEmptyURI(t *testing.T) {
	if _, err := NewMongoStore(context.Background(), MongoOptions{}); err == nil {
		t.Error("expected error for empty uri")
	}
}
