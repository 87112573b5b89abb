package commands

import (
	"fmt"

	"catalog-migrator/internal/catalog"
	"catalog-migrator/internal/components/chrono"
	"catalog-migrator/internal/components/telemetry"
	"catalog-migrator/internal/config"
	"catalog-migrator/internal/migrate"
	"catalog-migrator/internal/storefront"
	"catalog-migrator/internal/transfer"
	"catalog-migrator/lib/serviceutil"

	"github.com/spf13/cobra"
)

func loadConfig() config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	return cfg
}

// loadCatalog prefers the --catalog flag, then catalog_path, then the
// embedded catalog.
func loadCatalog(cfg config.Config, flagPath string) catalog.Catalog {
	path := flagPath
	if path == "" {
		path = cfg.CatalogPath
	}

	var (
		cat catalog.Catalog
		err error
	)
	if path == "" {
		cat, err = catalog.Default()
	} else {
		cat, err = catalog.Load(path)
	}
	if err != nil {
		serviceutil.Fatal("failed to load catalog", err)
	}
	return cat
}

func newDownloader(cfg config.Config, dl config.DownloadConfig, tel telemetry.API) *transfer.Downloader {
	// validated by config.Load
	timeout, _ := dl.TimeoutDuration()
	mode := transfer.Streamed
	if dl.Mode == config.ModeBuffered {
		mode = transfer.Buffered
	}

	downloader, err := transfer.NewDownloader(transfer.DownloaderOptions{
		SourceUrl: cfg.SourceUrl,
		Timeout:   timeout,
		Mode:      mode,
	}, tel)
	if err != nil {
		serviceutil.Fatal("failed to create downloader", err)
	}
	return downloader
}

func newMigrator(cmd *cobra.Command, cfg config.Config, dl config.DownloadConfig, opts migrate.Options) *migrate.Migrator {
	tel := telemetry.SlogAPI{}

	session, err := storefront.NewSession(storefront.Options{BaseUrl: cfg.DestinationUrl}, tel)
	if err != nil {
		serviceutil.Fatal("failed to create storefront session", err)
	}

	opts.DownloadPause, opts.ItemPause = cfg.Pauses()
	opts.DefaultCategoryId = cfg.DefaultCategoryId

	return migrate.New(migrate.Params{
		Storefront: session,
		Downloader: newDownloader(cfg, dl, tel),
		Credentials: storefront.Credentials{
			Email:    cfg.Credentials.Email,
			Password: cfg.Credentials.Password,
		},
		Chrono:  chrono.NewStandardImpl(),
		Tel:     tel,
		Out:     cmd.OutOrStdout(),
		Options: opts,
	})
}

func checkStrict(counters migrate.RunCounters) error {
	if strict && counters.HasFailures() {
		return fmt.Errorf("%w: %d failed", errPartialFailure, counters.Failed)
	}
	return nil
}
