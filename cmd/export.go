package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/lupasearch/catalog-export/models"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:       "export {products|variants|properties}",
	Short:     "Write one page, or the whole catalog, as JSON to stdout",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"products", "variants", "properties"},
	RunE:      runExport,
}

func init() {
	exportCmd.Flags().Int("page", 1, "Page number")
	exportCmd.Flags().Int("limit", 0, "Page size (default from export.default_limit)")
	exportCmd.Flags().Int64("shop-id", 0, "Shop id (default from shop.id)")
	exportCmd.Flags().Int64("lang-id", 0, "Language id (default from shop.language_id)")
	exportCmd.Flags().Bool("all", false, "Walk every page and write one record per line")
	rootCmd.AddCommand(exportCmd)
}

// pageFunc is the shape shared by Exporter.Products and Exporter.Variants.
type pageFunc func(ctx context.Context, scope models.Scope, page models.PageRequest) (*models.Envelope, error)

func runExport(cmd *cobra.Command, args []string) error {
	scope := cfg.Scope()
	if v, _ := cmd.Flags().GetInt64("shop-id"); v > 0 {
		scope.ShopID = v
	}
	if v, _ := cmd.Flags().GetInt64("lang-id"); v > 0 {
		scope.LanguageID = v
	}
	page, _ := cmd.Flags().GetInt("page")
	limit, _ := cmd.Flags().GetInt("limit")
	if limit == 0 {
		limit = cfg.Export.DefaultLimit
	}
	req := models.PageRequest{Page: page, Limit: min(limit, cfg.Export.MaxLimit)}
	all, _ := cmd.Flags().GetBool("all")

	app, err := newApplication(cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	var fetch pageFunc
	switch args[0] {
	case "properties":
		props, err := app.exporter.Properties(ctx, scope.LanguageID)
		if err != nil {
			return err
		}
		return writeJSON(out, props)
	case "products":
		fetch = app.exporter.Products
	case "variants":
		fetch = app.exporter.Variants
	}

	if !all {
		env, err := fetch(ctx, scope, req)
		if err != nil {
			return err
		}
		return writeJSON(out, env)
	}
	n, err := exportAll(ctx, out, fetch, scope, req.Limit)
	logger.Info("export finished", "kind", args[0], "records", n)
	return err
}

// exportAll writes every record of every page as one JSON line.
func exportAll(ctx context.Context, w io.Writer, fetch pageFunc, scope models.Scope, limit int) (int, error) {
	enc := json.NewEncoder(w)
	written := 0
	for page := 1; ; page++ {
		env, err := fetch(ctx, scope, models.PageRequest{Page: page, Limit: limit})
		if err != nil {
			return written, fmt.Errorf("page %d: %w", page, err)
		}
		for _, rec := range env.Data {
			if err := enc.Encode(rec); err != nil {
				return written, err
			}
			written++
		}
		if int64(page) >= env.TotalPages || len(env.Data) == 0 {
			return written, nil
		}
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
