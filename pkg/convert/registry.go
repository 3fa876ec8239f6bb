package convert

import (
	"sort"
	"sync"

	"github.com/matzehuels/drawbridge/pkg/classify"
	dberrors "github.com/matzehuels/drawbridge/pkg/errors"
	"github.com/matzehuels/drawbridge/pkg/layout"
	"github.com/matzehuels/drawbridge/pkg/styles"
)

// Strategy bundles everything type-specific about a grammar: the
// classification rules that interpret its rendered primitives, the layout
// policy that decides when synthetic placement runs, and the stylesheet
// defaults applied to classified graphs.
type Strategy struct {
	Rules  classify.Rules
	Policy layout.Policy

	// Styles returns the default stylesheet for a theme. Nil selects the
	// standard per-type table.
	Styles func(theme string) styles.Defaults
}

// defaults resolves the strategy's stylesheet for a theme.
func (s Strategy) defaults(diagramType, theme string) styles.Defaults {
	if s.Styles != nil {
		return s.Styles(theme)
	}
	return styles.DefaultsFor(diagramType, theme)
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Strategy{}
)

// Register installs a strategy for a diagram type, replacing any previous
// registration. Safe for concurrent use.
func Register(diagramType string, s Strategy) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[diagramType] = s
}

// Lookup returns the strategy for a diagram type. Unknown types yield an
// ErrCodeUnsupportedType error; callers check this before rendering so an
// unsupported source never reaches the rendering collaborator.
func Lookup(diagramType string) (Strategy, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	s, ok := registry[diagramType]
	if !ok {
		return Strategy{}, dberrors.New(dberrors.ErrCodeUnsupportedType,
			"no conversion strategy registered for %q", diagramType).WithStage("dispatch")
	}
	return s, nil
}

// Types returns the registered diagram types in sorted order.
func Types() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for t := range registry {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func init() {
	Register("flowchart", Strategy{Rules: classify.Flowchart{}, Policy: layout.PolicyNative})
	Register("sequence", Strategy{Rules: classify.Sequence{}, Policy: layout.PolicyNative})
	Register("gantt", Strategy{Rules: classify.Gantt{}, Policy: layout.PolicyNative})
	Register("pie", Strategy{Rules: classify.Pie{}, Policy: layout.PolicyNative})
	Register("mindmap", Strategy{Rules: classify.TreeRules{Type: "mindmap"}, Policy: layout.PolicyNative})
	Register("orgchart", Strategy{Rules: classify.TreeRules{Type: "orgchart"}, Policy: layout.PolicyAlways})
	Register("kanban", Strategy{Rules: classify.Kanban{}, Policy: layout.PolicyNative})
	Register("timeline", Strategy{Rules: classify.Timeline{}, Policy: layout.PolicyNative})
	Register("userjourney", Strategy{Rules: classify.Journey{}, Policy: layout.PolicyNative})
	Register("swot", Strategy{Rules: classify.SWOT{}, Policy: layout.PolicyNative})
	Register("generic", Strategy{Rules: classify.Generic{}, Policy: layout.PolicyAlways})
}
