// Package migrate drives the two migration workflows: attaching images to
// products that already exist on the storefront, and replaying the full catalog
// into an empty storefront.
//
// Both are strictly sequential. Only a failed login or a failed reference data
// fetch aborts a run, every per-item failure is printed, counted and skipped.
package migrate

import (
	"context"
	"fmt"
	"io"
	"time"

	"catalog-migrator/internal/components/assert"
	"catalog-migrator/internal/components/chrono"
	"catalog-migrator/internal/components/telemetry"
	"catalog-migrator/internal/storefront"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	report_migrator_login            = "migrator.login"
	report_migrator_resolve_category = "migrator.resolve-category"
	report_migrator_attach_image     = "migrator.attach-image"
	report_migrator_create_product   = "migrator.create-product"
	report_migrator_product_image    = "migrator.product-image"
	report_migrator_gallery_item     = "migrator.gallery-item"
)

var (
	tracer = otel.Tracer("catalog-migrator/migrate")
	meter  = otel.Meter("catalog-migrator/migrate")
)

// Storefront is the subset of *storefront.Session the workflows need.
type Storefront interface {
	Login(ctx context.Context, creds storefront.Credentials) error
	ListProducts(ctx context.Context) ([]storefront.Product, error)
	ListCategories(ctx context.Context) (storefront.CategoryMap, error)
	CreateProduct(ctx context.Context, payload storefront.ProductPayload) (storefront.Product, error)
	UploadImage(ctx context.Context, localPath string, target storefront.UploadTarget) (storefront.UploadResult, error)
}

// Downloader is implemented by *transfer.Downloader.
type Downloader interface {
	Download(ctx context.Context, rawUrl, dest string) error
}

type Options struct {
	// DownloadPause is slept after every successful download.
	DownloadPause time.Duration
	// ItemPause is slept after every processed top level item.
	ItemPause         time.Duration
	DefaultCategoryId int
	// KeepImages leaves downloaded images in place after a successful upload,
	// only the full migration honors it.
	KeepImages bool
}

func DefaultOptions() Options {
	return Options{
		DownloadPause:     500 * time.Millisecond,
		ItemPause:         time.Second,
		DefaultCategoryId: storefront.DefaultCategoryId,
		KeepImages:        true,
	}
}

type Migrator struct {
	storefront  Storefront
	downloader  Downloader
	credentials storefront.Credentials
	chrono      chrono.API
	tel         telemetry.API
	out         io.Writer
	opts        Options

	items metric.Int64Counter
}

type Params struct {
	Storefront  Storefront
	Downloader  Downloader
	Credentials storefront.Credentials
	Chrono      chrono.API
	Tel         telemetry.API
	// Out receives the per-item progress lines.
	Out     io.Writer
	Options Options
}

func New(p Params) *Migrator {
	assert.NotNil(p.Storefront, "storefront")
	assert.NotNil(p.Downloader, "downloader")
	assert.NotNil(p.Chrono, "chrono")
	assert.NotNil(p.Tel, "telemetry")
	assert.NotNil(p.Out, "output writer")

	items, err := meter.Int64Counter(
		"migrate.items",
		metric.WithDescription("Items processed by a migration workflow, by outcome."),
	)
	if err != nil {
		// the global meter only fails on invalid instrument names
		panic(err)
	}

	return &Migrator{
		storefront:  p.Storefront,
		downloader:  p.Downloader,
		credentials: p.Credentials,
		chrono:      p.Chrono,
		tel:         telemetry.NewScopedAPI("migrate", p.Tel),
		out:         p.Out,
		opts:        p.Options,
		items:       items,
	}
}

// RunCounters tallies a workflow run, only the Migrator writes to it.
type RunCounters struct {
	Created         int
	Success         int
	Failed          int
	Skipped         int
	GalleryUploaded int
}

type outcome string

const (
	outcomeCreated outcome = "created"
	outcomeSuccess outcome = "success"
	outcomeFailed  outcome = "failed"
	outcomeSkipped outcome = "skipped"
	outcomeGallery outcome = "gallery_uploaded"
)

func (m *Migrator) count(ctx context.Context, workflow string, c *RunCounters, o outcome) {
	switch o {
	case outcomeCreated:
		c.Created++
	case outcomeSuccess:
		c.Success++
	case outcomeFailed:
		c.Failed++
	case outcomeSkipped:
		c.Skipped++
	case outcomeGallery:
		c.GalleryUploaded++
	}
	m.items.Add(ctx, 1, metric.WithAttributes(
		attribute.String("workflow", workflow),
		attribute.String("outcome", string(o)),
	))
}

func (m *Migrator) printf(format string, args ...any) {
	fmt.Fprintf(m.out, format, args...)
}

func (m *Migrator) login(ctx context.Context) error {
	m.printf("Logging in...\n")
	err := m.storefront.Login(ctx, m.credentials)
	if err != nil {
		m.tel.ReportBroken(report_migrator_login, err)
		return fmt.Errorf("login: %w", err)
	}
	m.printf("✓ Logged in successfully\n")
	return nil
}

func (m *Migrator) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	return m.chrono.Sleep(ctx, d)
}

const rule = "============================================================"

func (m *Migrator) banner(title string) {
	m.printf("\n%s\n%s\n%s\n", rule, title, rule)
}
