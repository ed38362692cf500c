package layout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/pageflow/pkg/errors"
)

// RegionKey identifies one column of one page. Pages and columns are 1-based.
type RegionKey struct {
	Page   int `json:"page" bson:"page"`
	Column int `json:"column" bson:"column"`
}

// Region returns the key for page p, column c.
func Region(p, c int) RegionKey { return RegionKey{Page: p, Column: c} }

// String returns the "<page>:<column>" form.
func (k RegionKey) String() string {
	return strconv.Itoa(k.Page) + ":" + strconv.Itoa(k.Column)
}

// IsZero reports whether the key is unset.
func (k RegionKey) IsZero() bool { return k.Page == 0 && k.Column == 0 }

// Before reports whether k is visited before o (page-major, column-minor).
func (k RegionKey) Before(o RegionKey) bool {
	if k.Page != o.Page {
		return k.Page < o.Page
	}
	return k.Column < o.Column
}

// Compare orders region keys page-major, column-minor.
func (k RegionKey) Compare(o RegionKey) int {
	switch {
	case k.Before(o):
		return -1
	case o.Before(k):
		return 1
	}
	return 0
}

// Next returns the region visited after k in a layout with the given column count.
func (k RegionKey) Next(columns int) RegionKey {
	if k.Column < columns {
		return RegionKey{Page: k.Page, Column: k.Column + 1}
	}
	return RegionKey{Page: k.Page + 1, Column: 1}
}

// MarshalText implements encoding.TextMarshaler so region keys can be used as
// JSON object keys.
func (k RegionKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *RegionKey) UnmarshalText(b []byte) error {
	parsed, err := ParseRegionKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseRegionKey parses the "<page>:<column>" form.
func ParseRegionKey(s string) (RegionKey, error) {
	page, col, ok := strings.Cut(s, ":")
	if !ok {
		return RegionKey{}, errors.New(errors.ErrCodeInvalidRegionKey, "region key %q: missing separator", s)
	}
	p, err := strconv.Atoi(page)
	if err != nil || p < 1 {
		return RegionKey{}, errors.New(errors.ErrCodeInvalidRegionKey, "region key %q: invalid page", s)
	}
	c, err := strconv.Atoi(col)
	if err != nil || c < 1 {
		return RegionKey{}, errors.New(errors.ErrCodeInvalidRegionKey, "region key %q: invalid column", s)
	}
	return RegionKey{Page: p, Column: c}, nil
}

// GoString helps test failure output.
func (k RegionKey) GoString() string { return fmt.Sprintf("layout.Region(%d, %d)", k.Page, k.Column) }
