package variant

import (
	"fmt"
	"regexp"
	"strings"
)

// The upstream publishes two artifact naming grammars with disjoint suffixes:
//
//	{impl}-{version}+{YYYYMMDD}-{triplet}-install_only.tar.gz
//	{impl}-{version}+{YYYYMMDD}-{triplet}-{config}-full.tar.zst
var (
	installOnlyPattern = regexp.MustCompile(
		`^(?P<implementation>\w+)-(?P<pythonVersion>.+)\+(?P<releaseTag>\d{8})-(?P<triplet>(?:-?[a-zA-Z0-9_])+)-install_only\.tar\.gz$`)
	fullPattern = regexp.MustCompile(
		`^(?P<implementation>\w+)-(?P<pythonVersion>.+)\+(?P<releaseTag>\d{8})-(?P<triplet>(?:-?[a-zA-Z0-9_])+)-(?P<config>debug|pgo\+lto|lto|noopt|pgo)-full\.tar\.zst$`)
)

// UnrecognizedError indicates an asset name matching neither grammar.
// Non-fatal: callers skip the asset and surface the name.
type UnrecognizedError struct {
	Name string
}

func (e *UnrecognizedError) Error() string {
	return fmt.Sprintf("%q is not a recognized python distribution", e.Name)
}

// Classify parses an asset name into a Variant. Names without a recognized
// archive suffix, or matching neither grammar, return *UnrecognizedError.
func Classify(name, url string) (*Variant, error) {
	if !strings.HasSuffix(name, ".tar.gz") && !strings.HasSuffix(name, ".tar.zst") {
		return nil, &UnrecognizedError{Name: name}
	}

	if m := installOnlyPattern.FindStringSubmatch(name); m != nil {
		fields := namedGroups(installOnlyPattern, m)
		return &Variant{
			Implementation: fields["implementation"],
			PythonVersion:  fields["pythonVersion"],
			ReleaseTag:     fields["releaseTag"],
			Triplet:        fields["triplet"],
			Config:         ConfigNone,
			Flavor:         FlavorInstallOnly,
			URL:            url,
		}, nil
	}

	if m := fullPattern.FindStringSubmatch(name); m != nil {
		fields := namedGroups(fullPattern, m)
		return &Variant{
			Implementation: fields["implementation"],
			PythonVersion:  fields["pythonVersion"],
			ReleaseTag:     fields["releaseTag"],
			Triplet:        fields["triplet"],
			Config:         BuildConfig(fields["config"]),
			Flavor:         FlavorFull,
			URL:            url,
		}, nil
	}

	return nil, &UnrecognizedError{Name: name}
}

// namedGroups maps a submatch slice to its capture group names.
func namedGroups(re *regexp.Regexp, match []string) map[string]string {
	groups := make(map[string]string)
	for i, name := range re.SubexpNames() {
		if name != "" && i < len(match) {
			groups[name] = match[i]
		}
	}
	return groups
}
