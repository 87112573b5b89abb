package migrate

import (
	"context"
	"fmt"

	"catalog-migrator/internal/storefront"
	"catalog-migrator/internal/transfer"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const workflowAttach = "attach_images"

type AttachResult struct {
	RunCounters
	// Total is the number of storefront products that were looked at.
	Total int
}

// AttachImages gives every existing storefront product listed in images its
// primary image. Products without an entry are skipped, a failed download or
// upload is counted and the run moves on.
func (m *Migrator) AttachImages(ctx context.Context, images map[string]string, scratch transfer.ScratchDir) (AttachResult, error) {
	ctx, span := tracer.Start(ctx, "migrate.AttachImages")
	defer span.End()
	start := m.chrono.Now()

	var result AttachResult

	m.banner("Adding Product Images")
	err := m.login(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return result, err
	}

	products, err := m.storefront.ListProducts(ctx)
	if err != nil {
		err = fmt.Errorf("list products: %w", err)
		span.SetStatus(codes.Error, err.Error())
		return result, err
	}
	result.Total = len(products)
	m.printf("Found %d products\n", len(products))

	for _, product := range products {
		err = m.attachImage(ctx, product, images, scratch, &result.RunCounters)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return result, err
		}
	}

	span.SetAttributes(
		attribute.Int("migrate.success", result.Success),
		attribute.Int("migrate.failed", result.Failed),
		attribute.Int("migrate.skipped", result.Skipped),
	)
	m.tel.ReportDebug("workflow finished", workflowAttach, m.chrono.Now().Sub(start).String())
	return result, nil
}

// attachImage only returns an error when the run should stop, which is when the
// context is done.
func (m *Migrator) attachImage(
	ctx context.Context,
	product storefront.Product,
	images map[string]string,
	scratch transfer.ScratchDir,
	counters *RunCounters,
) error {
	ctx, span := tracer.Start(ctx, "migrate.attachImage", trace.WithAttributes(
		attribute.String("product.slug", product.Slug),
		attribute.Int("product.id", product.Id),
	))
	defer span.End()

	m.printf("\nProcessing: %s (%s)\n", product.Name, product.Slug)

	imageUrl, ok := images[product.Slug]
	if !ok {
		m.printf("  ⚠ No image found for %s\n", product.Slug)
		m.count(ctx, workflowAttach, counters, outcomeSkipped)
		return nil
	}

	asset := scratch.Asset(transfer.ProductImageName(product.Slug, imageUrl))
	m.printf("  Downloading image...\n")
	err := m.downloader.Download(ctx, imageUrl, asset.Path)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		m.printf("  ✗ Failed to download image\n")
		m.count(ctx, workflowAttach, counters, outcomeFailed)
		return nil
	}
	m.printf("  ✓ Downloaded to %s\n", asset.Name())

	m.printf("  Uploading to product...\n")
	_, err = m.storefront.UploadImage(ctx, asset.Path, storefront.ProductImageTarget{
		ProductId: product.Id,
		Primary:   true,
	})
	if err != nil {
		m.tel.ReportWarning(report_migrator_attach_image, product.Slug, err)
		m.printf("  ✗ Failed to upload image: %v\n", err)
		m.count(ctx, workflowAttach, counters, outcomeFailed)
	} else {
		m.printf("  ✓ Image uploaded successfully\n")
		m.count(ctx, workflowAttach, counters, outcomeSuccess)
	}
	asset.Remove()

	return m.pause(ctx, m.opts.ItemPause)
}
