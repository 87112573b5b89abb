package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"catalog-migrator/internal/components/telemetry"
	"catalog-migrator/internal/config"
	"catalog-migrator/internal/sourcesite"
	"catalog-migrator/internal/storefront"
	"catalog-migrator/lib/serviceutil"
	"catalog-migrator/lib/tableutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var discoverOut string

func init() {
	discoverImagesCmd.Flags().StringVar(&discoverOut, "out", "", "Write the discovered images as a catalog usable with attach-images --catalog.")
	rootCmd.AddCommand(discoverImagesCmd)
}

type discoveredCatalog struct {
	ProductImages map[string]string `json:"product_images"`
}

var discoverImagesCmd = &cobra.Command{
	Use:   "discover-images [--out <path/to/catalog.json5>]",
	Short: "Looks up the source site product page of every storefront product and lists the images found there.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Read(configPath)
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		if cfg.SourceUrl == "" || cfg.DestinationUrl == "" {
			serviceutil.Fatal("failed to read config", errors.New("source_url and destination_url are required"))
		}

		tel := telemetry.SlogAPI{}
		session, err := storefront.NewSession(storefront.Options{BaseUrl: cfg.DestinationUrl}, tel)
		if err != nil {
			serviceutil.Fatal("failed to create storefront session", err)
		}
		source, err := sourcesite.NewClient(cfg.SourceUrl, tel)
		if err != nil {
			serviceutil.Fatal("failed to create source site client", err)
		}

		products, err := session.ListProducts(cmd.Context())
		if err != nil {
			return err
		}

		out := discoveredCatalog{ProductImages: map[string]string{}}
		t := tableutil.New(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"Slug", "Images", "Primary"})
		for _, product := range products {
			urls, err := source.ProductImages(cmd.Context(), product.Slug)
			if err != nil {
				if cmd.Context().Err() != nil {
					return cmd.Context().Err()
				}
				t.AppendRow(table.Row{product.Slug, "-", err.Error()})
				continue
			}
			if len(urls) == 0 {
				t.AppendRow(table.Row{product.Slug, 0, ""})
				continue
			}
			out.ProductImages[product.Slug] = urls[0]
			t.AppendRow(table.Row{product.Slug, len(urls), urls[0]})
		}
		t.AppendFooter(table.Row{"Found", fmt.Sprintf("%d/%d", len(out.ProductImages), len(products)), ""})
		t.Render()

		if discoverOut == "" {
			return nil
		}
		contents, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		err = os.WriteFile(discoverOut, append(contents, '\n'), 0644)
		if err != nil {
			return err
		}
		slog.Info("wrote discovered images", "path", discoverOut, "products", len(out.ProductImages))
		return nil
	},
}
