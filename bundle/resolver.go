package bundle

// ResolveKind mirrors esbuild's import-kind enum closely enough for stages
// to make kind-sensitive decisions (e.g. entry point vs. dynamic import).
type ResolveKind string

// ResolveArgs is what the engine hands the chain for each specifier
// (spec.md §4.F): resolve(specifier, importer, resolveDir, kind).
type ResolveArgs struct {
	Specifier  string
	Importer   string
	ResolveDir string
	Kind       ResolveKind
}

// ResolveResult is a claimed resolution: a path in a namespace, optionally
// external. Loaders are namespace-scoped (spec.md §4.F).
type ResolveResult struct {
	Path      string
	Namespace string
	External  bool
	// SideEffects is attached by the CDN/Tarball stages from the owning
	// package's sideEffects declaration, consumed by the engine's
	// tree-shaker (out of scope to reimplement — §1 Non-goals — but the
	// metadata must still flow through so the engine's own tree-shaker can
	// act on it, per spec.md §4.F "Side-effects determination").
	SideEffects *bool
}

// deferred is the zero value a Stage returns to mean "not mine, try the
// next stage" (spec.md §4.F: "A stage that returns 'not mine' defers").
var deferred *ResolveResult = nil

// Stage is one link of the Resolver Chain. A stage either claims the
// specifier (non-nil result, nil error), defers (nil, nil), or fails
// (nil, error) — a failing stage's error propagates immediately (spec.md
// §4.F: "A stage that throws propagates"). Resolve takes args by pointer so
// a purely syntactic stage (Alias) can rewrite the specifier in place for
// every stage still to come, without the Chain needing a separate rewrite
// channel.
type Stage interface {
	Name() string
	Resolve(args *ResolveArgs) (*ResolveResult, error)
}

// Chain runs stages in order, short-circuiting on the first hit (spec.md
// §4.F: "Ordering and tie-breaks are strict: a stage that returns a hit
// short-circuits the rest.").
type Chain struct {
	stages []Stage
}

// NewChain builds the chain in the exact order spec.md §4.F mandates:
// Alias → External → VFS → Tarball → HTTP → CDN.
func NewChain(stages ...Stage) *Chain {
	return &Chain{stages: stages}
}

// Resolve runs the chain and returns ErrModuleNotFound if every stage
// defers. args is copied once at the top so callers' originals are never
// mutated; stages mutate the local copy as they rewrite the specifier.
func (c *Chain) Resolve(args ResolveArgs) (*ResolveResult, error) {
	for _, stage := range c.stages {
		result, err := stage.Resolve(&args)
		if err != nil {
			return nil, err
		}
		if result != nil {
			return result, nil
		}
	}
	return nil, &ErrModuleNotFound{Specifier: args.Specifier, Importer: args.Importer}
}
