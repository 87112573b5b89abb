// Package config loads the settings of a migration run.
//
// Values are layered, later layers win:
//  1. defaults
//  2. catalog-migrator.json5 (+ catalog-migrator.local.json5)
//  3. .env file in the working directory
//  4. MIGRATOR_* environment variables
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"catalog-migrator/lib/configutil"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "MIGRATOR"

var ErrMissingCredentials = errors.New("admin email and password must be provided (MIGRATOR_EMAIL / MIGRATOR_PASSWORD)")

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

const (
	ModeStreamed = "streamed"
	ModeBuffered = "buffered"
)

type DownloadConfig struct {
	// Timeout is stored as a Go duration string, ex. "15s".
	Timeout string `json:"timeout"`
	// Mode is either "streamed" or "buffered".
	Mode string `json:"mode"`
}

func (d DownloadConfig) TimeoutDuration() (time.Duration, error) {
	return time.ParseDuration(d.Timeout)
}

type Config struct {
	DestinationUrl string      `json:"destination_url"`
	SourceUrl      string      `json:"source_url"`
	Credentials    Credentials `json:"credentials"`
	// CatalogPath points to a json5 catalog file, the embedded catalog is used when empty.
	CatalogPath string `json:"catalog_path"`

	// AttachDownload is used by attach-images, MigrateDownload by migrate.
	AttachDownload  DownloadConfig `json:"attach_download"`
	MigrateDownload DownloadConfig `json:"migrate_download"`

	AttachScratchDir  string `json:"attach_scratch_dir"`
	MigrateImagesDir  string `json:"migrate_images_dir"`
	DownloadPause     string `json:"download_pause"`
	ItemPause         string `json:"item_pause"`
	DefaultCategoryId int    `json:"default_category_id"`
}

// Default mirrors the values the migration was first run with.
func Default() Config {
	return Config{
		DestinationUrl: "https://capecodwoodworking.com",
		SourceUrl:      "https://sawdustandcoffee.com",
		AttachDownload: DownloadConfig{
			Timeout: "15s",
			Mode:    ModeStreamed,
		},
		MigrateDownload: DownloadConfig{
			Timeout: "30s",
			Mode:    ModeBuffered,
		},
		AttachScratchDir:  filepath.Join(os.TempDir(), "product_images"),
		MigrateImagesDir:  "migrated_images",
		DownloadPause:     "500ms",
		ItemPause:         "1s",
		DefaultCategoryId: 1,
	}
}

type envOverrides struct {
	DestinationUrl string `envconfig:"DESTINATION_URL"`
	SourceUrl      string `envconfig:"SOURCE_URL"`
	CatalogPath    string `envconfig:"CATALOG_PATH"`
	Email          string `envconfig:"EMAIL"`
	Password       string `envconfig:"PASSWORD"`
	AttachScratch  string `envconfig:"ATTACH_SCRATCH_DIR"`
	MigrateImages  string `envconfig:"MIGRATE_IMAGES_DIR"`
}

// Load reads and validates the run configuration, `path` may point to a file
// that does not exist.
func Load(path string) (Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Read layers the configuration sources without validating the result, for
// commands that never log in.
func Read(path string) (Config, error) {
	cfg := Default()

	fileCfg, err := configutil.ReadConfig[Config](path)
	if err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}
	if err == nil {
		err = mergo.Merge(&cfg, fileCfg, mergo.WithOverride)
		if err != nil {
			return Config{}, err
		}
	}

	// a missing .env is the common case
	err = godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var env envOverrides
	err = envconfig.Process(EnvPrefix, &env)
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	err = mergo.Merge(&cfg, Config{
		DestinationUrl:   env.DestinationUrl,
		SourceUrl:        env.SourceUrl,
		CatalogPath:      env.CatalogPath,
		AttachScratchDir: env.AttachScratch,
		MigrateImagesDir: env.MigrateImages,
		Credentials: Credentials{
			Email:    env.Email,
			Password: env.Password,
		},
	}, mergo.WithOverride)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Credentials.Email == "" || c.Credentials.Password == "" {
		errs = append(errs, ErrMissingCredentials)
	}
	if c.DestinationUrl == "" {
		errs = append(errs, errors.New("destination_url is required"))
	}
	for name, d := range map[string]string{
		"attach_download.timeout":  c.AttachDownload.Timeout,
		"migrate_download.timeout": c.MigrateDownload.Timeout,
		"download_pause":           c.DownloadPause,
		"item_pause":               c.ItemPause,
	} {
		if _, err := time.ParseDuration(d); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	for name, mode := range map[string]string{
		"attach_download.mode":  c.AttachDownload.Mode,
		"migrate_download.mode": c.MigrateDownload.Mode,
	} {
		if mode != ModeStreamed && mode != ModeBuffered {
			errs = append(errs, fmt.Errorf("%s: unknown mode %q", name, mode))
		}
	}
	if c.DefaultCategoryId <= 0 {
		errs = append(errs, errors.New("default_category_id must be positive"))
	}
	return errors.Join(errs...)
}

// Pauses returns the parsed download and item pauses, only valid after Validate.
func (c Config) Pauses() (download time.Duration, item time.Duration) {
	download, _ = time.ParseDuration(c.DownloadPause)
	item, _ = time.ParseDuration(c.ItemPause)
	return download, item
}
