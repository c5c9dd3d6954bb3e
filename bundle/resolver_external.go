package bundle

import (
	"strings"

	"github.com/esm-dev/esbundle/builtin"
)

// ExternalStage implements spec.md §4.F.2: Node builtins the current
// runtime supports natively become external; on browser with
// config.Polyfill, unsupported builtins are rewritten to their polyfill
// package and deferred so the CDN stage resolves that package instead.
type ExternalStage struct {
	Runtime  string // "node", "deno", "bun", "browser"
	Polyfill bool
	// External lists additional bare specifiers (or "prefix*" patterns)
	// BuildConfig.External (SPEC_FULL.md §10.3) asks to leave unbundled.
	External []string
}

func (s *ExternalStage) Name() string { return "external" }

func (s *ExternalStage) Resolve(args *ResolveArgs) (*ResolveResult, error) {
	if !builtin.IsBuiltin(args.Specifier) {
		for _, pat := range s.External {
			if specifierMatchesExternal(args.Specifier, pat) {
				return &ResolveResult{Path: args.Specifier, External: true}, nil
			}
		}
		return nil, nil
	}

	info := builtin.GetBuiltinInfo(args.Specifier)
	supported := nativeSupport(info, s.Runtime)
	if supported {
		return &ResolveResult{Path: builtin.Normalize(args.Specifier), External: true}, nil
	}

	if s.Runtime == "browser" && s.Polyfill && info.Polyfill != "" {
		args.Specifier = info.Polyfill
		return nil, nil // defer to CDN, now resolving the polyfill package
	}

	// Unsupported and unpolyfillable: still external, matching the
	// teacher's behavior of emitting an external node: specifier and
	// letting the consumer's own runtime fail loudly if it truly lacks it,
	// rather than failing the build outright.
	return &ResolveResult{Path: builtin.Normalize(args.Specifier), External: true}, nil
}

func nativeSupport(info *builtin.Info, runtime string) bool {
	if info == nil {
		return false
	}
	var support builtin.Support
	switch runtime {
	case "browser":
		support = builtin.SupportNo
	case "deno":
		support = info.Deno
	case "bun":
		support = info.Bun
	default:
		support = info.Node
	}
	return support == builtin.SupportYes || support == builtin.SupportPartial
}

func specifierMatchesExternal(specifier, pattern string) bool {
	if pattern == specifier {
		return true
	}
	return strings.HasSuffix(pattern, "*") && strings.HasPrefix(specifier, strings.TrimSuffix(pattern, "*"))
}
