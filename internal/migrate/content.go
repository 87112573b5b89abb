package migrate

import (
	"context"
	"fmt"

	"catalog-migrator/internal/catalog"
	"catalog-migrator/internal/storefront"
	"catalog-migrator/internal/transfer"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const workflowMigrate = "migrate_content"

type MigrationResult struct {
	RunCounters
	ProductsTotal int
	GalleryTotal  int
	// ImagesDir is where the downloaded images were left, empty when they were
	// removed after upload.
	ImagesDir string
}

// MigrateContent creates every catalog product with its images, then uploads
// the gallery. Products and gallery items that fail are reported and skipped.
func (m *Migrator) MigrateContent(ctx context.Context, cat catalog.Catalog, imagesDir transfer.ScratchDir) (MigrationResult, error) {
	ctx, span := tracer.Start(ctx, "migrate.MigrateContent")
	defer span.End()
	start := m.chrono.Now()

	result := MigrationResult{
		ProductsTotal: len(cat.Products),
		GalleryTotal:  len(cat.Gallery),
	}
	if m.opts.KeepImages {
		result.ImagesDir = imagesDir.Root
	}
	fail := func(err error) (MigrationResult, error) {
		span.SetStatus(codes.Error, err.Error())
		return result, err
	}

	m.banner("Content Migration")
	err := m.login(ctx)
	if err != nil {
		return fail(err)
	}

	m.printf("\nFetching categories...\n")
	categories, err := m.storefront.ListCategories(ctx)
	if err != nil {
		return fail(fmt.Errorf("list categories: %w", err))
	}
	m.printf("✓ Found %d categories\n", len(categories))

	productsDir, err := imagesDir.Sub("products")
	if err != nil {
		return fail(err)
	}
	galleryDir, err := imagesDir.Sub("gallery")
	if err != nil {
		return fail(err)
	}

	m.banner("MIGRATING PRODUCTS")
	for _, def := range cat.Products {
		err = m.migrateProduct(ctx, def, categories, productsDir, &result.RunCounters)
		if err != nil {
			return fail(err)
		}
	}

	m.banner("MIGRATING GALLERY")
	for _, item := range cat.Gallery {
		err = m.migrateGalleryItem(ctx, item, galleryDir, &result.RunCounters)
		if err != nil {
			return fail(err)
		}
	}

	span.SetAttributes(
		attribute.Int("migrate.created", result.Created),
		attribute.Int("migrate.gallery_uploaded", result.GalleryUploaded),
		attribute.Int("migrate.failed", result.Failed),
	)
	m.tel.ReportDebug("workflow finished", workflowMigrate, m.chrono.Now().Sub(start).String())
	return result, nil
}

func (m *Migrator) migrateProduct(
	ctx context.Context,
	def catalog.ProductDefinition,
	categories storefront.CategoryMap,
	dir transfer.ScratchDir,
	counters *RunCounters,
) error {
	ctx, span := tracer.Start(ctx, "migrate.migrateProduct", trace.WithAttributes(
		attribute.String("product.slug", def.Slug),
	))
	defer span.End()

	m.printf("\nCreating product: %s\n", def.Name)

	payload := BuildPayload(def, m.resolveCategory(categories, def))
	product, err := m.storefront.CreateProduct(ctx, payload)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		m.tel.ReportWarning(report_migrator_create_product, def.Slug, err)
		m.printf("✗ Failed to create product: %v\n", err)
		m.count(ctx, workflowMigrate, counters, outcomeFailed)
		return nil
	}
	m.printf("✓ Created product: %s (ID: %d)\n", def.Name, product.Id)
	m.count(ctx, workflowMigrate, counters, outcomeCreated)

	for idx, imageUrl := range def.Images {
		asset := dir.Asset(transfer.IndexedProductImageName(def.Slug, idx, imageUrl))
		m.printf("  Downloading image %d/%d...\n", idx+1, len(def.Images))
		err = m.downloader.Download(ctx, imageUrl, asset.Path)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			m.printf("  ✗ Failed to download image %d\n", idx+1)
			m.count(ctx, workflowMigrate, counters, outcomeFailed)
			continue
		}
		err = m.pause(ctx, m.opts.DownloadPause)
		if err != nil {
			return err
		}

		m.printf("  Uploading image %d...\n", idx+1)
		_, err = m.storefront.UploadImage(ctx, asset.Path, storefront.ProductImageTarget{ProductId: product.Id})
		if err != nil {
			m.tel.ReportWarning(report_migrator_product_image, def.Slug, idx, err)
			m.printf("  ✗ Failed to upload image: %v\n", err)
			m.count(ctx, workflowMigrate, counters, outcomeFailed)
			continue
		}
		m.printf("  ✓ Uploaded image %d\n", idx+1)
		m.count(ctx, workflowMigrate, counters, outcomeSuccess)
		if !m.opts.KeepImages {
			asset.Remove()
		}
	}

	return m.pause(ctx, m.opts.ItemPause)
}

func (m *Migrator) migrateGalleryItem(
	ctx context.Context,
	item catalog.GalleryItem,
	dir transfer.ScratchDir,
	counters *RunCounters,
) error {
	ctx, span := tracer.Start(ctx, "migrate.migrateGalleryItem", trace.WithAttributes(
		attribute.String("gallery.title", item.Title),
	))
	defer span.End()

	m.printf("\nUploading gallery image: %s\n", item.Title)

	asset := dir.Asset(transfer.GalleryImageName(item.Title, item.ImageUrl))
	err := m.downloader.Download(ctx, item.ImageUrl, asset.Path)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		m.printf("✗ Failed to download image\n")
		m.count(ctx, workflowMigrate, counters, outcomeFailed)
		return nil
	}
	err = m.pause(ctx, m.opts.DownloadPause)
	if err != nil {
		return err
	}

	_, err = m.storefront.UploadImage(ctx, asset.Path, storefront.GalleryTarget{
		Title:       item.Title,
		Description: item.Description,
		IsFeatured:  item.IsFeatured,
	})
	if err != nil {
		m.tel.ReportWarning(report_migrator_gallery_item, item.Title, err)
		m.printf("✗ Failed to upload gallery image: %v\n", err)
		m.count(ctx, workflowMigrate, counters, outcomeFailed)
	} else {
		m.printf("✓ Uploaded gallery image: %s\n", item.Title)
		m.count(ctx, workflowMigrate, counters, outcomeGallery)
		if !m.opts.KeepImages {
			asset.Remove()
		}
	}

	return m.pause(ctx, m.opts.ItemPause)
}
