package retrieval

import (
	"errors"
	"fmt"
	"os"

	"github.com/ufdr-assistant/go/orchestrator/internal/vectordb"
)

// Kind classifies a collaborator failure
type Kind int

const (
	// KindTransient is a single failed call; the next query may succeed
	KindTransient Kind = iota
	// KindBackendUnavailable means the index or graph was never built
	KindBackendUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindBackendUnavailable:
		return "backend_unavailable"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Collaborator names used in logs and metrics
const (
	CollaboratorIndex = "similarity_index"
	CollaboratorStore = "evidence_store"
	CollaboratorGraph = "graph"
)

// Failure records one collaborator call that degraded to an empty result
type Failure struct {
	Kind         Kind
	Collaborator string
	Err          error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s %s failure: %v", f.Collaborator, f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Classify wraps err as a Failure of the given collaborator
func Classify(collaborator string, err error) *Failure {
	kind := KindTransient
	if errors.Is(err, vectordb.ErrDisabled) || errors.Is(err, os.ErrNotExist) {
		kind = KindBackendUnavailable
	}
	return &Failure{Kind: kind, Collaborator: collaborator, Err: err}
}
