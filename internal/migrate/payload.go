package migrate

import (
	"catalog-migrator/internal/catalog"
	"catalog-migrator/internal/storefront"
)

const lowStockThreshold = 5

// BuildPayload converts a catalog definition into a creation request for the
// given category. Prices are sent exactly as the catalog wrote them. Inventory
// tracking and reviews are always on.
func BuildPayload(def catalog.ProductDefinition, categoryId int) storefront.ProductPayload {
	payload := storefront.ProductPayload{
		Name:              def.Name,
		Slug:              def.Slug,
		Description:       def.Description,
		LongDescription:   def.LongDescription,
		Price:             def.Price.String(),
		Sku:               def.Sku,
		StockQuantity:     def.StockQuantity,
		TrackInventory:    true,
		LowStockThreshold: lowStockThreshold,
		IsFeatured:        def.IsFeatured,
		IsActive:          def.IsActive,
		AllowReviews:      true,
		CategoryIds:       []int{categoryId},
	}
	if def.SalePrice != nil {
		sale := def.SalePrice.String()
		payload.SalePrice = &sale
	}
	return payload
}

// resolveCategory falls back to the default category (with a warning) when the
// slug is unknown to the storefront.
func (m *Migrator) resolveCategory(categories storefront.CategoryMap, def catalog.ProductDefinition) int {
	id, ok := categories.Resolve(def.CategorySlug)
	if ok {
		return id
	}
	fallback := m.opts.DefaultCategoryId
	if fallback <= 0 {
		fallback = storefront.DefaultCategoryId
	}
	m.tel.ReportWarning(report_migrator_resolve_category, def.Slug, def.CategorySlug, fallback)
	m.printf("⚠ Warning: Category '%s' not found, using default\n", def.CategorySlug)
	return fallback
}
