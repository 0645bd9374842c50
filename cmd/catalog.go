package cmd

import (
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// catalogCmd is for listing and pruning the catalog of generated stores
var catalogCmd = &cobra.Command{
	Use:                        "catalog",
	Short:                      "List or prune the catalog of generated tensor stores",
	SuggestionsMinimumDistance: 2,
	Long: `
The catalog is a sqlite file, set with --catalog or catalog.path, recording
every tensor store 'music generate' writes or reuses.`,
}

// catalogListCmd is for listing every catalogued store
var catalogListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List the generated tensor stores",
	RunE:    runCatalogList,
	Aliases: []string{"ls"},
}

// catalogDeleteCmd is for forgetting a store
var catalogDeleteCmd = &cobra.Command{
	Use:     "delete [store]",
	Short:   "Forget a tensor store (the file is left in place)",
	RunE:    runCatalogDelete,
	Args:    cobra.ExactArgs(1),
	Aliases: []string{"rm"},
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	cat, err := e.openCatalog(cmd.Context())
	if err != nil {
		return err
	}
	if cat == nil {
		return errors.New("no catalog configured, set --catalog or catalog.path")
	}
	defer cat.Close()

	entries, err := cat.List(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	defer w.Flush()
	w.Write([]byte("ID\tDATASET\tSPLIT\tRECORDS\tSHAPE\tCREATED\tSTORE\n"))
	for _, en := range entries {
		id := en.ID
		if len(id) > 8 {
			id = id[:8]
		}
		line := id + "\t" + en.Dataset + "\t" + en.Split + "\t" +
			humanize.Comma(int64(en.Records)) + "\t" +
			humanize.Comma(int64(en.Channels)) + "×" + humanize.Comma(int64(en.MaxLength)) + "\t" +
			humanize.Time(en.CreatedAt) + "\t" + en.Store + "\n"
		w.Write([]byte(line))
	}
	return nil
}

func runCatalogDelete(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	cat, err := e.openCatalog(cmd.Context())
	if err != nil {
		return err
	}
	if cat == nil {
		return errors.New("no catalog configured, set --catalog or catalog.path")
	}
	defer cat.Close()

	found, err := cat.Delete(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if !found {
		return errors.Errorf("%s is not in the catalog", args[0])
	}
	return nil
}

func init() {
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogDeleteCmd)

	rootCmd.AddCommand(catalogCmd)
}
