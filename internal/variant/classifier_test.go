package variant

import (
	"errors"
	"reflect"
	"testing"
)

func TestClassifyInstallOnly(t *testing.T) {
	tests := []struct {
		name string
		want Variant
	}{
		{
			name: "cpython-3.11.4+20230826-x86_64-unknown-linux-gnu-install_only.tar.gz",
			want: Variant{
				Implementation: "cpython",
				PythonVersion:  "3.11.4",
				ReleaseTag:     "20230826",
				Triplet:        "x86_64-unknown-linux-gnu",
				Config:         ConfigNone,
				Flavor:         FlavorInstallOnly,
			},
		},
		{
			name: "cpython-3.13.0rc1+20240814-aarch64-apple-darwin-install_only.tar.gz",
			want: Variant{
				Implementation: "cpython",
				PythonVersion:  "3.13.0rc1",
				ReleaseTag:     "20240814",
				Triplet:        "aarch64-apple-darwin",
				Config:         ConfigNone,
				Flavor:         FlavorInstallOnly,
			},
		},
		{
			name: "cpython-3.10.13+20240107-x86_64_v3-unknown-linux-musl-install_only.tar.gz",
			want: Variant{
				Implementation: "cpython",
				PythonVersion:  "3.10.13",
				ReleaseTag:     "20240107",
				Triplet:        "x86_64_v3-unknown-linux-musl",
				Config:         ConfigNone,
				Flavor:         FlavorInstallOnly,
			},
		},
	}

	for _, tt := range tests {
		got, err := Classify(tt.name, "https://example.com/"+tt.name)
		if err != nil {
			t.Errorf("Classify(%q) returned error: %v", tt.name, err)
			continue
		}
		tt.want.URL = "https://example.com/" + tt.name
		if !reflect.DeepEqual(*got, tt.want) {
			t.Errorf("Classify(%q) = %+v, want %+v", tt.name, *got, tt.want)
		}
	}
}

func TestClassifyFull(t *testing.T) {
	tests := []struct {
		name       string
		wantConfig BuildConfig
	}{
		{"cpython-3.11.4+20230826-x86_64-unknown-linux-gnu-pgo+lto-full.tar.zst", ConfigPGOLTO},
		{"cpython-3.11.4+20230826-x86_64-unknown-linux-gnu-pgo-full.tar.zst", ConfigPGO},
		{"cpython-3.11.4+20230826-x86_64-unknown-linux-gnu-lto-full.tar.zst", ConfigLTO},
		{"cpython-3.11.4+20230826-x86_64-unknown-linux-gnu-noopt-full.tar.zst", ConfigNoOpt},
		{"cpython-3.11.4+20230826-x86_64-unknown-linux-gnu-debug-full.tar.zst", ConfigDebug},
	}

	for _, tt := range tests {
		got, err := Classify(tt.name, "https://example.com/"+tt.name)
		if err != nil {
			t.Errorf("Classify(%q) returned error: %v", tt.name, err)
			continue
		}
		if got.Flavor != FlavorFull {
			t.Errorf("Classify(%q).Flavor = %q, want %q", tt.name, got.Flavor, FlavorFull)
		}
		if got.Config != tt.wantConfig {
			t.Errorf("Classify(%q).Config = %q, want %q", tt.name, got.Config, tt.wantConfig)
		}
		if got.Triplet != "x86_64-unknown-linux-gnu" {
			t.Errorf("Classify(%q).Triplet = %q, want x86_64-unknown-linux-gnu", tt.name, got.Triplet)
		}
	}
}

func TestClassifyUnrecognized(t *testing.T) {
	names := []string{
		"foo-bar.zip",
		"SHA256SUMS",
		"cpython-3.11.4+20230826-x86_64-unknown-linux-gnu-full.tar.zst",          // missing config
		"cpython-3.11.4+20230826-x86_64-unknown-linux-gnu-install_only.tar.zst",  // wrong suffix
		"cpython-3.11.4+2023-x86_64-unknown-linux-gnu-install_only.tar.gz",       // tag not 8 digits
		"cpython-3.11.4+20230826-x86_64-unknown-linux-gnu-stripped-full.tar.zst", // unknown config
	}

	for _, name := range names {
		got, err := Classify(name, "https://example.com/"+name)
		if err == nil {
			t.Errorf("Classify(%q) = %v, want UnrecognizedError", name, got)
			continue
		}
		var unrec *UnrecognizedError
		if !errors.As(err, &unrec) {
			t.Errorf("Classify(%q) error = %v, want *UnrecognizedError", name, err)
			continue
		}
		if unrec.Name != name {
			t.Errorf("UnrecognizedError.Name = %q, want %q", unrec.Name, name)
		}
	}
}

// TestClassifyIdempotent verifies classification has no hidden state across runs.
func TestClassifyIdempotent(t *testing.T) {
	name := "cpython-3.11.4+20230826-x86_64-unknown-linux-gnu-pgo-full.tar.zst"

	first, err := Classify(name, "u")
	if err != nil {
		t.Fatalf("Classify() failed: %v", err)
	}
	second, err := Classify(name, "u")
	if err != nil {
		t.Fatalf("Classify() failed on second run: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Classify() not idempotent: %+v vs %+v", first, second)
	}
}
