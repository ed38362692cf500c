package cache

import "strings"

// Keyer derives cache keys. Every key has the form "<kind>:<sha256>" so the
// kind can be recovered for metrics.
type Keyer interface {
	// PlanKey is the key of a paginated plan.
	PlanKey(documentHash string, opts PlanKeyOpts) string

	// KeysKey is the key of a document's required measurement keys.
	KeysKey(documentHash string, opts PlanKeyOpts) string

	// ArtifactKey is the key of a rendered artifact of a plan.
	ArtifactKey(planHash string, opts ArtifactKeyOpts) string
}

// PlanKeyOpts lists everything besides the document that changes a plan.
type PlanKeyOpts struct {
	ParamsHash string `json:"params"`
	KindsHash  string `json:"kinds"`
	Audit      bool   `json:"audit,omitempty"`
}

// ArtifactKeyOpts lists what changes a rendered artifact.
type ArtifactKeyOpts struct {
	Format   string `json:"format"`
	Detailed bool   `json:"detailed,omitempty"`
	Collapse bool   `json:"collapse,omitempty"`
}

// Key kinds.
const (
	KindPlan     = "plan"
	KindKeys     = "keys"
	KindArtifact = "artifact"
)

// DefaultKeyer hashes every key component with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) PlanKey(documentHash string, opts PlanKeyOpts) string {
	return hashKey(KindPlan, documentHash, opts)
}

func (DefaultKeyer) KeysKey(documentHash string, opts PlanKeyOpts) string {
	return hashKey(KindKeys, documentHash, opts.KindsHash)
}

func (DefaultKeyer) ArtifactKey(planHash string, opts ArtifactKeyOpts) string {
	return hashKey(KindArtifact, planHash, opts)
}

// KindOf returns the kind of a key produced by a Keyer, ignoring any scope
// prefix.
func KindOf(key string) string {
	rest := key
	for {
		kind, tail, ok := strings.Cut(rest, ":")
		if !ok {
			return "unknown"
		}
		switch kind {
		case KindPlan, KindKeys, KindArtifact:
			return kind
		}
		rest = tail
	}
}
