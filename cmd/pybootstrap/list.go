package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/BadgerOps/pybootstrap/internal/variant"
	"github.com/spf13/cobra"
)

var (
	listCached         bool
	listTriplet        string
	listImplementation string
	listArch           string
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available standalone Python versions",
		Long: `List the install-only variants of the latest upstream release with their
build configuration and C runtime, enriched from the matching full builds.

With --cached the listing is rendered from the local cache without any
network access.`,
		Example: `  pybootstrap list
  pybootstrap list --triplet x86_64-unknown-linux-gnu
  pybootstrap list --implementation cpython --arch aarch64
  pybootstrap list --cached`,
		RunE: listRun,
	}

	cmd.Flags().BoolVar(&listCached, "cached", false, "render from the local listing cache, no network")
	cmd.Flags().StringVar(&listTriplet, "triplet", "", "only show variants whose triplet contains this string")
	cmd.Flags().StringVar(&listImplementation, "implementation", "", "only show this implementation")
	cmd.Flags().StringVar(&listArch, "arch", "", "only show this architecture")

	return cmd
}

func listRun(cmd *cobra.Command, args []string) error {
	log := slog.Default()

	var (
		variants []*variant.Variant
		err      error
	)
	if listCached {
		variants, err = cachedVariants(log)
	} else {
		variants, err = discoverVariants(cmd.Context(), log)
	}
	if err != nil {
		return err
	}

	variants = filterVariants(variants)
	if len(variants) == 0 {
		fmt.Println("No variants found matching criteria")
		return nil
	}

	fmt.Printf("%-16s %-12s %-36s %-8s %s\n", "Implementation", "Version", "Triplet", "Config", "C Runtime")
	fmt.Println(strings.Repeat("-", 96))

	for _, v := range variants {
		cruntime := "-"
		if descriptors, err := v.CRuntime(); err == nil {
			cruntime = strings.Join(descriptors, " ")
		}
		fmt.Printf("%-16s %-12s %-36s %-8s %s\n",
			v.Implementation,
			v.PythonVersion,
			v.Triplet,
			v.Config,
			cruntime,
		)
	}

	return nil
}

func filterVariants(variants []*variant.Variant) []*variant.Variant {
	var filtered []*variant.Variant
	for _, v := range variants {
		if listTriplet != "" && !strings.Contains(v.Triplet, listTriplet) {
			continue
		}
		if listImplementation != "" && v.Implementation != listImplementation {
			continue
		}
		if listArch != "" && v.Arch() != listArch {
			continue
		}
		filtered = append(filtered, v)
	}
	return filtered
}
