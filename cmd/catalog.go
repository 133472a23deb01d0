package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gitlab.com/yelinaung/repair-ledger/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Show or replace the brand and model catalog",
}

var catalogShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the catalog",
	RunE:  runCatalogShow,
}

var catalogImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Replace the catalog with a JSON list of {brand, models}",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCatalogImport,
}

var catalogShowJSON bool

func init() {
	rootCmd.AddCommand(catalogCmd)

	catalogCmd.AddCommand(catalogShowCmd)
	catalogCmd.AddCommand(catalogImportCmd)

	catalogShowCmd.Flags().BoolVar(&catalogShowJSON, "json", false, "Print as importable JSON")
}

func runCatalogShow(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := a.store.Catalog(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if catalogShowJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	for _, e := range entries {
		_, _ = fmt.Fprintf(out, "%s: %s\n", e.Brand, strings.Join(e.Models, ", "))
	}
	_, _ = fmt.Fprintf(out, "\nCommon services: %s\n", strings.Join(catalog.CommonServices(), ", "))
	return nil
}

func runCatalogImport(cmd *cobra.Command, args []string) error {
	file := ""
	if len(args) == 1 {
		file = args[0]
	}
	data, err := readInput(cmd.InOrStdin(), file)
	if err != nil {
		return err
	}
	entries, err := catalog.ParseImport(data)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.ReplaceCatalog(ctx, entries); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Catalog replaced: %d brands\n", len(entries))
	return nil
}
