package bundle

import "testing"

func TestDefaultConfigValidates(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("expected default config to validate, got %v", err)
	}
}

func TestValidateRejectsEmptyEntryPoints(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EntryPoints = nil
	if err := cfg.Validate(); err == nil {
		t.Error("expected empty entryPoints to be rejected")
	}
}

func TestValidateRejectsUnknownCDN(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CDN = "not-a-real-cdn-shorthand"
	if err := cfg.Validate(); err == nil {
		t.Error("expected unrecognized CDN shorthand to be rejected")
	}
}

func TestValidateRejectsUnknownAnsiMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Ansi = "invalid"
	if err := cfg.Validate(); err == nil {
		t.Error("expected unrecognized ansi mode to be rejected")
	}
}

func TestMergeOverlaysOnlyProvidedFields(t *testing.T) {
	base := DefaultConfig()
	override := BuildConfig{EntryPoints: []string{"/main.tsx"}}
	merged := base.Merge(override)

	if merged.EntryPoints[0] != "/main.tsx" {
		t.Errorf("expected overridden entry point, got %v", merged.EntryPoints)
	}
	if merged.CDN != base.CDN {
		t.Errorf("expected CDN to remain the default when not overridden, got %q", merged.CDN)
	}
	if merged.Esbuild.Format != base.Esbuild.Format {
		t.Errorf("expected esbuild format to remain the default when not overridden, got %q", merged.Esbuild.Format)
	}
}

func TestLoadConfigFileMissingReturnsZeroValue(t *testing.T) {
	cfg, err := LoadConfigFile("/nonexistent/path/esbundle.yaml")
	if err != nil {
		t.Fatalf("expected missing config file to be a no-op, got %v", err)
	}
	if len(cfg.EntryPoints) != 0 {
		t.Errorf("expected zero-value config for a missing file, got %+v", cfg)
	}
}
