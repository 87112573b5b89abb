package commands

import (
	"catalog-migrator/internal/migrate"
	"catalog-migrator/internal/transfer"
	"catalog-migrator/lib/serviceutil"

	"github.com/spf13/cobra"
)

var attachCatalogPath string

func init() {
	attachImagesCmd.Flags().StringVar(&attachCatalogPath, "catalog", "", "Catalog whose product_images table should be used instead of the configured one.")
	rootCmd.AddCommand(attachImagesCmd)
}

var attachImagesCmd = &cobra.Command{
	Use:   "attach-images [--catalog <path/to/catalog.json5>]",
	Short: "Gives every existing storefront product its primary image from the source site.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		cat := loadCatalog(cfg, attachCatalogPath)

		scratch, err := transfer.NewScratchDir(cfg.AttachScratchDir)
		if err != nil {
			serviceutil.Fatal("failed to create scratch dir", err)
		}

		m := newMigrator(cmd, cfg, cfg.AttachDownload, migrate.DefaultOptions())
		result, err := m.AttachImages(cmd.Context(), cat.ProductImages, scratch)
		if err != nil {
			return err
		}

		migrate.RenderAttachReport(cmd.OutOrStdout(), result)
		return checkStrict(result.RunCounters)
	},
}
