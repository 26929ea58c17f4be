package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/BadgerOps/pybootstrap/internal/variant"
	"github.com/spf13/cobra"
)

var (
	inspectCached  bool
	inspectVersion string
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <triplet>",
		Short: "Show download URL and build metadata for a platform triplet",
		Long: `Inspect prints the install-only variants matching a platform triplet as
JSON, including the download URL and the full build metadata. This is the
information a packaging tool needs to create a package from a variant.`,
		Example: `  pybootstrap inspect x86_64-unknown-linux-gnu
  pybootstrap inspect aarch64-apple-darwin --version 3.12.0
  pybootstrap inspect x86_64-unknown-linux-musl --cached`,
		Args: cobra.ExactArgs(1),
		RunE: inspectRun,
	}

	cmd.Flags().BoolVar(&inspectCached, "cached", false, "render from the local listing cache, no network")
	cmd.Flags().StringVar(&inspectVersion, "version", "", "only show this Python version")

	return cmd
}

func inspectRun(cmd *cobra.Command, args []string) error {
	log := slog.Default()
	triplet := args[0]

	var (
		variants []*variant.Variant
		err      error
	)
	if inspectCached {
		variants, err = cachedVariants(log)
	} else {
		variants, err = discoverVariants(cmd.Context(), log)
	}
	if err != nil {
		return err
	}

	var matches []*variant.Variant
	for _, v := range variants {
		if v.Triplet != triplet {
			continue
		}
		if inspectVersion != "" && v.PythonVersion != inspectVersion {
			continue
		}
		matches = append(matches, v)
	}

	if len(matches) == 0 {
		return fmt.Errorf("no variant found for triplet %q", triplet)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(matches)
}
