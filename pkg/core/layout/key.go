package layout

import (
	"strconv"
	"strings"

	"github.com/matzehuels/pageflow/pkg/errors"
)

// KeyKind discriminates the two variants of a [MeasurementKey].
type KeyKind int

const (
	// KeyBlock identifies a whole instance measured as one opaque block.
	KeyBlock KeyKind = iota
	// KeySegment identifies a contiguous index range of a list instance.
	KeySegment
)

const (
	keySep      = ":"
	blockSuffix = "block"
	baseSuffix  = "base"
	contSuffix  = "cont"

	// MetadataSuffix is appended to a list kind for the synthesized entry
	// that carries a list's introductory (non-item) content.
	MetadataSuffix = "-metadata"
)

// MeasurementKey names exactly what was measured. It is a tagged union:
// block keys only use ID; segment keys use every field.
//
// The zero value is not a valid key.
type MeasurementKey struct {
	Kind         KeyKind
	ID           string
	ListKind     string
	Start        int
	Count        int
	Total        int
	Continuation bool
}

// BlockKey returns the key of a whole-instance block.
func BlockKey(id string) MeasurementKey {
	return MeasurementKey{Kind: KeyBlock, ID: id}
}

// SegmentKey returns the key of list items [start, start+count) of a list
// with total items.
func SegmentKey(id, kind string, start, count, total int, continuation bool) MeasurementKey {
	return MeasurementKey{
		Kind:         KeySegment,
		ID:           id,
		ListKind:     kind,
		Start:        start,
		Count:        count,
		Total:        total,
		Continuation: continuation,
	}
}

// MetadataKey returns the key of the zero-item metadata entry of a list.
func MetadataKey(id, kind string, total int) MeasurementKey {
	return SegmentKey(id, kind+MetadataSuffix, 0, 0, total, false)
}

// IsBlock reports whether k is a block key.
func (k MeasurementKey) IsBlock() bool { return k.Kind == KeyBlock }

// IsMetadata reports whether k names a list's metadata entry.
func (k MeasurementKey) IsMetadata() bool {
	return k.Kind == KeySegment && strings.HasSuffix(k.ListKind, MetadataSuffix)
}

// IsZero reports whether k is unset.
func (k MeasurementKey) IsZero() bool { return k == MeasurementKey{} }

// Full returns the key of the whole, unsplit list k belongs to.
func (k MeasurementKey) Full() MeasurementKey {
	if k.Kind != KeySegment {
		return k
	}
	return SegmentKey(k.ID, k.ListKind, 0, k.Total, k.Total, false)
}

// String returns the serialized form of the key.
func (k MeasurementKey) String() string {
	if k.Kind == KeyBlock {
		return k.ID + keySep + blockSuffix
	}
	suffix := baseSuffix
	if k.Continuation {
		suffix = contSuffix
	}
	var b strings.Builder
	b.WriteString(k.ID)
	for _, part := range []string{
		k.ListKind,
		strconv.Itoa(k.Start),
		strconv.Itoa(k.Count),
		strconv.Itoa(k.Total),
		suffix,
	} {
		b.WriteString(keySep)
		b.WriteString(part)
	}
	return b.String()
}

// MarshalText implements encoding.TextMarshaler.
func (k MeasurementKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *MeasurementKey) UnmarshalText(b []byte) error {
	parsed, err := ParseMeasurementKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseMeasurementKey parses the serialized form produced by String.
// Fields are taken from the right, so instance IDs may contain colons.
func ParseMeasurementKey(s string) (MeasurementKey, error) {
	parts := strings.Split(s, keySep)
	n := len(parts)

	if n >= 2 && parts[n-1] == blockSuffix {
		id := strings.Join(parts[:n-1], keySep)
		if id == "" {
			return MeasurementKey{}, invalidKey(s, "empty id")
		}
		return BlockKey(id), nil
	}

	if n < 6 {
		return MeasurementKey{}, invalidKey(s, "expected block or segment form")
	}

	var cont bool
	switch parts[n-1] {
	case baseSuffix:
	case contSuffix:
		cont = true
	default:
		return MeasurementKey{}, invalidKey(s, "unknown suffix "+strconv.Quote(parts[n-1]))
	}

	nums := [3]int{}
	for i, raw := range parts[n-4 : n-1] {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return MeasurementKey{}, invalidKey(s, "invalid range")
		}
		nums[i] = v
	}
	start, count, total := nums[0], nums[1], nums[2]
	if start+count > total {
		return MeasurementKey{}, invalidKey(s, "range exceeds total")
	}

	kind := parts[n-5]
	id := strings.Join(parts[:n-5], keySep)
	if id == "" || kind == "" {
		return MeasurementKey{}, invalidKey(s, "empty id or kind")
	}
	return SegmentKey(id, kind, start, count, total, cont), nil
}

func invalidKey(s, reason string) error {
	return errors.New(errors.ErrCodeInvalidMeasurementKey, "measurement key %q: %s", s, reason)
}

// CompareKeys orders keys by instance, then list kind, then range. It gives
// every key set a deterministic order.
func CompareKeys(a, b MeasurementKey) int {
	if c := strings.Compare(a.ID, b.ID); c != 0 {
		return c
	}
	if a.Kind != b.Kind {
		return int(a.Kind) - int(b.Kind)
	}
	if c := strings.Compare(a.ListKind, b.ListKind); c != 0 {
		return c
	}
	if a.Start != b.Start {
		return a.Start - b.Start
	}
	if a.Count != b.Count {
		return a.Count - b.Count
	}
	if a.Total != b.Total {
		return a.Total - b.Total
	}
	switch {
	case a.Continuation == b.Continuation:
		return 0
	case !a.Continuation:
		return -1
	}
	return 1
}
