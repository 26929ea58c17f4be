package variant

import (
	"fmt"
	"strings"
)

// Flavor distinguishes the two published artifact kinds.
type Flavor string

const (
	// FlavorInstallOnly is the minimal artifact without build metadata.
	FlavorInstallOnly Flavor = "install_only"
	// FlavorFull is the full build artifact carrying a build configuration.
	FlavorFull Flavor = "full"
)

// BuildConfig is the optimization/instrumentation profile of a full build.
// Install-only variants carry ConfigNone until enrichment copies the config
// of their best-matching full build.
type BuildConfig string

const (
	ConfigPGOLTO BuildConfig = "pgo+lto"
	ConfigPGO    BuildConfig = "pgo"
	ConfigLTO    BuildConfig = "lto"
	ConfigNoOpt  BuildConfig = "noopt"
	ConfigDebug  BuildConfig = "debug"
	ConfigNone   BuildConfig = ""
)

// configPriority orders build configs for best-match selection.
// Lower is better.
var configPriority = map[BuildConfig]int{
	ConfigPGOLTO: 0,
	ConfigPGO:    1,
	ConfigLTO:    2,
	ConfigNoOpt:  3,
	ConfigDebug:  4,
	ConfigNone:   5,
}

// Priority returns the selection rank of the config. Unknown configs rank
// after every known one.
func (c BuildConfig) Priority() int {
	p, ok := configPriority[c]
	if !ok {
		return len(configPriority)
	}
	return p
}

// Variant is one published build artifact of the standalone distribution.
type Variant struct {
	Implementation string      `json:"implementation"` // e.g. "cpython"
	PythonVersion  string      `json:"python_version"` // dotted version plus any pre-release suffix
	ReleaseTag     string      `json:"release_tag"`    // 8-digit upstream release tag
	Triplet        string      `json:"triplet"`        // platform-arch-ABI, hyphen-delimited
	Config         BuildConfig `json:"config"`
	Flavor         Flavor      `json:"flavor"`
	URL            string      `json:"url"`

	// BuildInfo is the parsed PYTHON.json of the matched full build. It is
	// nil until enrichment and write-once afterward. Treated as an open
	// mapping: only crt_features and apple_sdk_deployment_target are ever
	// interpreted.
	BuildInfo map[string]interface{} `json:"build_info,omitempty"`
}

// Key identifies the group a variant belongs to.
type Key struct {
	Implementation string
	PythonVersion  string
	Triplet        string
}

// GroupKey returns the grouping key of the variant.
func (v *Variant) GroupKey() Key {
	return Key{
		Implementation: v.Implementation,
		PythonVersion:  v.PythonVersion,
		Triplet:        v.Triplet,
	}
}

// Arch returns the architecture segment of the triplet.
func (v *Variant) Arch() string {
	arch, _, _ := strings.Cut(v.Triplet, "-")
	return arch
}

// Enriched reports whether build metadata has been attached.
func (v *Variant) Enriched() bool {
	return v.BuildInfo != nil
}

// AttachBuildInfo sets the build metadata and config exactly once.
func (v *Variant) AttachBuildInfo(info map[string]interface{}, cfg BuildConfig) error {
	if v.BuildInfo != nil {
		return fmt.Errorf("variant %s: build info already attached", v.URL)
	}
	if info == nil {
		info = map[string]interface{}{}
	}
	v.BuildInfo = info
	v.Config = cfg
	return nil
}

func (v *Variant) String() string {
	return fmt.Sprintf("Variant(implementation=%q, pythonVersion=%q, releaseTag=%q, triplet=%q, config=%q, flavor=%q)",
		v.Implementation, v.PythonVersion, v.ReleaseTag, v.Triplet, v.Config, v.Flavor)
}

// MissingBuildInfoError indicates a derivation that needs build metadata was
// invoked before enrichment.
type MissingBuildInfoError struct {
	Variant *Variant
}

func (e *MissingBuildInfoError) Error() string {
	return fmt.Sprintf("variant %s-%s-%s has no build info yet",
		e.Variant.Implementation, e.Variant.PythonVersion, e.Variant.Triplet)
}

const glibcSymbolPrefix = "glibc-max-symbol-version:"

// CRuntime derives the C runtime descriptors for the variant's platform.
// Linux triplets resolve to the glibc max symbol version advertised in
// crt_features, or "musl" when no glibc entry exists. Darwin triplets resolve
// to the Apple SDK deployment target. Everything else passes crt_features
// through unchanged. Requires enrichment for install-only variants.
func (v *Variant) CRuntime() ([]string, error) {
	if v.BuildInfo == nil {
		return nil, &MissingBuildInfoError{Variant: v}
	}

	switch {
	case strings.Contains(v.Triplet, "linux"):
		for _, feature := range v.crtFeatures() {
			if strings.HasPrefix(feature, glibcSymbolPrefix) {
				return []string{"glibc:" + strings.TrimPrefix(feature, glibcSymbolPrefix)}, nil
			}
		}
		return []string{"musl"}, nil
	case strings.Contains(v.Triplet, "darwin"):
		target, _ := v.BuildInfo["apple_sdk_deployment_target"].(string)
		return []string{"apple-sdk-deployment-target:" + target}, nil
	default:
		return v.crtFeatures(), nil
	}
}

// crtFeatures coerces the crt_features entry of the build metadata into a
// string slice. JSON decoding hands us []interface{}.
func (v *Variant) crtFeatures() []string {
	raw, ok := v.BuildInfo["crt_features"]
	if !ok {
		return nil
	}
	entries, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	features := make([]string, 0, len(entries))
	for _, entry := range entries {
		if s, ok := entry.(string); ok {
			features = append(features, s)
		}
	}
	return features
}
