package variant

import (
	"errors"
	"reflect"
	"testing"
)

func TestConfigPriorityOrder(t *testing.T) {
	ordered := []BuildConfig{ConfigPGOLTO, ConfigPGO, ConfigLTO, ConfigNoOpt, ConfigDebug, ConfigNone}

	for i := 1; i < len(ordered); i++ {
		if ordered[i-1].Priority() >= ordered[i].Priority() {
			t.Errorf("Priority(%q) = %d, expected less than Priority(%q) = %d",
				ordered[i-1], ordered[i-1].Priority(), ordered[i], ordered[i].Priority())
		}
	}

	if unknown := BuildConfig("stripped").Priority(); unknown <= ConfigNone.Priority() {
		t.Errorf("unknown config priority = %d, expected after ConfigNone (%d)", unknown, ConfigNone.Priority())
	}
}

func TestArch(t *testing.T) {
	tests := []struct {
		triplet string
		want    string
	}{
		{"x86_64-unknown-linux-gnu", "x86_64"},
		{"aarch64-apple-darwin", "aarch64"},
		{"x86_64_v3-unknown-linux-musl", "x86_64_v3"},
		{"i686-pc-windows-msvc", "i686"},
	}

	for _, tt := range tests {
		v := &Variant{Triplet: tt.triplet}
		if got := v.Arch(); got != tt.want {
			t.Errorf("Arch() for triplet %q = %q, want %q", tt.triplet, got, tt.want)
		}
	}
}

func TestCRuntime(t *testing.T) {
	tests := []struct {
		name      string
		triplet   string
		buildInfo map[string]interface{}
		want      []string
	}{
		{
			name:    "linux gnu with glibc symbol version",
			triplet: "x86_64-unknown-linux-gnu",
			buildInfo: map[string]interface{}{
				"crt_features": []interface{}{"static-libgcc", "glibc-max-symbol-version:2.34"},
			},
			want: []string{"glibc:2.34"},
		},
		{
			name:    "linux musl without glibc entry",
			triplet: "x86_64-unknown-linux-musl",
			buildInfo: map[string]interface{}{
				"crt_features": []interface{}{"static-libc"},
			},
			want: []string{"musl"},
		},
		{
			name:      "linux with empty metadata",
			triplet:   "aarch64-unknown-linux-gnu",
			buildInfo: map[string]interface{}{},
			want:      []string{"musl"},
		},
		{
			name:    "darwin deployment target",
			triplet: "aarch64-apple-darwin",
			buildInfo: map[string]interface{}{
				"apple_sdk_deployment_target": "11.0",
			},
			want: []string{"apple-sdk-deployment-target:11.0"},
		},
		{
			name:    "other platforms pass crt_features through",
			triplet: "x86_64-pc-windows-msvc",
			buildInfo: map[string]interface{}{
				"crt_features": []interface{}{"vcruntime:140"},
			},
			want: []string{"vcruntime:140"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &Variant{Triplet: tt.triplet, BuildInfo: tt.buildInfo}
			got, err := v.CRuntime()
			if err != nil {
				t.Fatalf("CRuntime() failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("CRuntime() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCRuntimeBeforeEnrichment(t *testing.T) {
	v := installOnlyVariant("3.11.4", "x86_64-unknown-linux-gnu")

	_, err := v.CRuntime()
	if err == nil {
		t.Fatal("expected MissingBuildInfoError, got nil")
	}

	var missing *MissingBuildInfoError
	if !errors.As(err, &missing) {
		t.Fatalf("error = %v, want *MissingBuildInfoError", err)
	}
}

func TestAttachBuildInfoWriteOnce(t *testing.T) {
	v := installOnlyVariant("3.11.4", "x86_64-unknown-linux-gnu")

	info := map[string]interface{}{"crt_features": []interface{}{"glibc-max-symbol-version:2.34"}}
	if err := v.AttachBuildInfo(info, ConfigPGO); err != nil {
		t.Fatalf("AttachBuildInfo() failed: %v", err)
	}

	if v.Config != ConfigPGO {
		t.Errorf("Config = %q, want %q", v.Config, ConfigPGO)
	}
	if !v.Enriched() {
		t.Error("Enriched() = false after attach")
	}

	if err := v.AttachBuildInfo(map[string]interface{}{}, ConfigLTO); err == nil {
		t.Error("expected second AttachBuildInfo to fail")
	}
	if v.Config != ConfigPGO {
		t.Errorf("Config mutated by rejected attach: %q", v.Config)
	}
}

func TestAttachBuildInfoNilBecomesEmpty(t *testing.T) {
	v := installOnlyVariant("3.11.4", "x86_64-unknown-linux-gnu")

	if err := v.AttachBuildInfo(nil, ConfigLTO); err != nil {
		t.Fatalf("AttachBuildInfo(nil) failed: %v", err)
	}
	if !v.Enriched() {
		t.Error("Enriched() = false, want true for empty-but-attached metadata")
	}
}
