// Package router maps free-text requests to exactly one handler type using
// keyword scoring over the capability catalog, with an LLM tie-break for
// ambiguous phrasing. Every exit path returns a type that exists in the
// catalog.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/morezero/condo-orchestrator/pkg/ai"
	"github.com/morezero/condo-orchestrator/pkg/catalog"
)

const logPrefix = "router:router"

// Keyword scoring weights and the confidence floor below which the LLM
// tie-break runs.
const (
	keywordWeight   = 2
	intentWeight    = 1
	confidenceFloor = 3
	maxCandidates   = 3
)

// Method records which path produced a routing decision, for observability.
type Method string

const (
	MethodOverride Method = "override"
	MethodKeyword  Method = "keyword"
	MethodLLM      Method = "llm"
	MethodDefault  Method = "default"
)

// Decision is the outcome of a routing call.
type Decision struct {
	HandlerType string `json:"handlerType"`
	Method      Method `json:"method"`
	Score       int    `json:"score"`
}

// Router decides which handler type owns a request.
type Router struct {
	catalog *catalog.Catalog
	llm     ai.Client
}

// New creates a router over the given catalog. llm may be nil, in which case
// ambiguous requests resolve to the default type.
func New(cat *catalog.Catalog, llm ai.Client) *Router {
	return &Router{catalog: cat, llm: llm}
}

// Decide maps requestText to a handler type. An explicitOverride naming a
// known type short-circuits inference; callers may intentionally bypass it.
func (r *Router) Decide(ctx context.Context, requestText, explicitOverride string) Decision {
	if explicitOverride != "" && r.catalog.Has(explicitOverride) {
		return Decision{HandlerType: explicitOverride, Method: MethodOverride}
	}

	scores := r.score(requestText)
	if len(scores) > 0 && scores[0].score >= confidenceFloor {
		return Decision{HandlerType: scores[0].handlerType, Method: MethodKeyword, Score: scores[0].score}
	}

	// Ambiguous or no match: LLM tie-break over the top candidates, or the
	// full catalog when nothing scored at all.
	candidates := make([]string, 0, maxCandidates)
	for i := 0; i < len(scores) && i < maxCandidates; i++ {
		candidates = append(candidates, scores[i].handlerType)
	}
	if len(candidates) == 0 {
		candidates = r.catalog.Types()
	}

	if picked, ok := r.tieBreak(ctx, requestText, candidates); ok {
		return Decision{HandlerType: picked, Method: MethodLLM}
	}
	return Decision{HandlerType: catalog.DefaultType, Method: MethodDefault}
}

type scored struct {
	handlerType string
	score       int
	order       int
}

// score ranks every descriptor against the lower-cased request text.
// Descriptors with zero score are discarded; ties keep catalog declaration
// order, first wins.
func (r *Router) score(requestText string) []scored {
	text := strings.ToLower(requestText)

	var out []scored
	for i, d := range r.catalog.Descriptors() {
		s := 0
		for _, kw := range d.Keywords {
			if strings.Contains(text, strings.ToLower(kw)) {
				s += keywordWeight
			}
		}
		for _, verb := range d.Intents {
			if strings.Contains(text, strings.ToLower(verb)) {
				s += intentWeight
			}
		}
		if s > 0 {
			out = append(out, scored{handlerType: d.Type, score: s, order: i})
		}
	}

	sort.SliceStable(out, func(a, b int) bool {
		if out[a].score != out[b].score {
			return out[a].score > out[b].score
		}
		return out[a].order < out[b].order
	})
	return out
}

// tieBreak asks the LLM to pick one of the candidate types. Any error, empty
// response, or unrecognized answer yields (_, false) so the caller falls back
// to the default type.
func (r *Router) tieBreak(ctx context.Context, requestText string, candidates []string) (string, bool) {
	if r.llm == nil {
		return "", false
	}

	var sb strings.Builder
	for _, typ := range candidates {
		d, ok := r.catalog.Get(typ)
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "- %s: %s\n", d.Type, d.Description)
	}

	system := "You route condominium service requests to a handler type. " +
		"Answer with exactly one handler type name from the list, nothing else."
	user := fmt.Sprintf("Request: %q\n\nHandler types:\n%s\nHandler type:", requestText, sb.String())

	answer, err := r.llm.Generate(ctx, system, user, ai.Options{MaxTokens: 16})
	if err != nil {
		slog.Warn(fmt.Sprintf("%s - LLM tie-break failed: %v", logPrefix, err))
		return "", false
	}

	picked := strings.ToLower(strings.Trim(strings.TrimSpace(answer), "`'\". "))
	if picked == "" || !r.catalog.Has(picked) {
		slog.Debug(fmt.Sprintf("%s - LLM tie-break answer %q not in catalog", logPrefix, answer))
		return "", false
	}
	return picked, true
}
