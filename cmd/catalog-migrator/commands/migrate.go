package commands

import (
	"catalog-migrator/internal/migrate"
	"catalog-migrator/internal/transfer"
	"catalog-migrator/lib/serviceutil"

	"github.com/spf13/cobra"
)

var (
	migrateCatalogPath string
	removeImages       bool
)

func init() {
	migrateCmd.Flags().StringVar(&migrateCatalogPath, "catalog", "", "Catalog to migrate instead of the configured one.")
	migrateCmd.Flags().BoolVar(&removeImages, "remove-images", false, "Delete each downloaded image once it was uploaded.")
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate [--catalog <path/to/catalog.json5>] [--remove-images]",
	Short: "Creates every catalog product with its images on the storefront, then uploads the gallery.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		cat := loadCatalog(cfg, migrateCatalogPath)

		imagesDir, err := transfer.NewScratchDir(cfg.MigrateImagesDir)
		if err != nil {
			serviceutil.Fatal("failed to create images dir", err)
		}

		opts := migrate.DefaultOptions()
		opts.KeepImages = !removeImages
		m := newMigrator(cmd, cfg, cfg.MigrateDownload, opts)
		result, err := m.MigrateContent(cmd.Context(), cat, imagesDir)
		if err != nil {
			return err
		}

		migrate.RenderMigrationReport(cmd.OutOrStdout(), result)
		return checkStrict(result.RunCounters)
	},
}
