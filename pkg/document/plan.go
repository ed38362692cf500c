package document

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/pageflow/pkg/core/layout"
	"github.com/matzehuels/pageflow/pkg/errors"
)

// MarshalPlan encodes a plan as indented JSON.
func MarshalPlan(p layout.Plan) ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// WritePlan writes a plan as indented JSON.
func WritePlan(p layout.Plan, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}

// WritePlanFile writes a plan to path.
func WritePlanFile(p layout.Plan, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WritePlan(p, f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// UnmarshalPlan decodes a plan and checks its shape: pages and columns are
// numbered from one in order, and the column count matches.
func UnmarshalPlan(data []byte) (layout.Plan, error) {
	var p layout.Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return layout.Plan{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode plan")
	}
	for i, page := range p.Pages {
		if page.Number != i+1 {
			return layout.Plan{}, errors.New(errors.ErrCodeInvalidInput, "page %d has number %d", i+1, page.Number)
		}
		if p.ColumnCount > 0 && len(page.Columns) != p.ColumnCount {
			return layout.Plan{}, errors.New(errors.ErrCodeInvalidInput, "page %d has %d columns, want %d", page.Number, len(page.Columns), p.ColumnCount)
		}
		for j, col := range page.Columns {
			if col.Index != j+1 {
				return layout.Plan{}, errors.New(errors.ErrCodeInvalidInput, "page %d column %d has index %d", page.Number, j+1, col.Index)
			}
		}
	}
	return p, nil
}

// ReadPlan decodes a plan from r.
func ReadPlan(r io.Reader) (layout.Plan, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return layout.Plan{}, err
	}
	return UnmarshalPlan(data)
}

// ReadPlanFile reads a plan from path.
func ReadPlanFile(path string) (layout.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return layout.Plan{}, fmt.Errorf("read %s: %w", path, err)
	}
	p, err := UnmarshalPlan(data)
	if err != nil {
		return layout.Plan{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}
