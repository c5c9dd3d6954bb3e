package bundle

// builtinAliases are syntactic rewrites applied before any other resolution,
// the teacher's own class of fixup (e.g. the bare "assert" specifier being
// remapped to the subpath export "assert/"), generalized into a small fixed
// table rather than an inline special case.
var builtinAliases = map[string]string{
	"assert": "assert/",
}

// AliasStage implements spec.md §4.F.1: applies user-provided (BuildConfig.
// Alias) and built-in specifier rewrites. Purely syntactic — it never
// touches the VFS, network, or registry — and always defers afterward so
// the rewritten specifier continues down the chain.
type AliasStage struct {
	UserAliases map[string]string
}

func (s *AliasStage) Name() string { return "alias" }

func (s *AliasStage) Resolve(args *ResolveArgs) (*ResolveResult, error) {
	if rewritten, ok := s.UserAliases[args.Specifier]; ok {
		args.Specifier = rewritten
	}
	if rewritten, ok := builtinAliases[args.Specifier]; ok {
		args.Specifier = rewritten
	}
	// Alias only rewrites; it never claims, so the chain always continues
	// to External with (possibly) a new specifier value.
	return nil, nil
}
