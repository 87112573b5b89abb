// Package catalog holds the static product and gallery tables that get replayed
// into the storefront. They live in a json5 data file, the one the migration was
// written against is embedded as the default.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"catalog-migrator/lib/configutil"

	_ "embed"

	"github.com/go-playground/validator/v10"
)

//go:embed default_catalog.json5
var defaultCatalog []byte

type ProductDefinition struct {
	Name            string
	Slug            string
	Description     string
	LongDescription string
	Price           Price
	// SalePrice is nil when the product is not on sale.
	SalePrice     *Price
	Sku           string
	StockQuantity int
	CategorySlug  string
	IsFeatured    bool
	IsActive      bool
	Images        []string
}

type GalleryItem struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	ImageUrl    string `json:"image_url" validate:"required"`
	IsFeatured  bool   `json:"is_featured"`
}

type Catalog struct {
	Products []ProductDefinition
	Gallery  []GalleryItem
	// ProductImages maps a storefront product slug to the source image that should
	// become its primary image.
	ProductImages map[string]string
}

type productEntry struct {
	Name            string   `json:"name" validate:"required"`
	Slug            string   `json:"slug" validate:"required"`
	Description     string   `json:"description"`
	LongDescription string   `json:"long_description"`
	Price           string   `json:"price" validate:"required,numeric"`
	SalePrice       string   `json:"sale_price" validate:"omitempty,numeric"`
	Sku             string   `json:"sku" validate:"required"`
	StockQuantity   int      `json:"stock_quantity" validate:"gte=0"`
	CategorySlug    string   `json:"category_slug" validate:"required"`
	IsFeatured      bool     `json:"is_featured"`
	IsActive        bool     `json:"is_active"`
	Images          []string `json:"images" validate:"dive,required"`
}

type file struct {
	Products      []productEntry    `json:"products" validate:"dive"`
	Gallery       []GalleryItem     `json:"gallery" validate:"dive"`
	ProductImages map[string]string `json:"product_images" validate:"dive,keys,required,endkeys,required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// Default returns the embedded catalog.
func Default() (Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog from a json5 file, merging `<name>.local.json5` over it
// when present.
func Load(path string) (Catalog, error) {
	f, err := configutil.ReadConfig[file](path)
	if os.IsNotExist(err) {
		return Catalog{}, fmt.Errorf("catalog %s: %w", path, err)
	}
	if err != nil {
		return Catalog{}, err
	}
	return f.toCatalog()
}

func Parse(contents []byte) (Catalog, error) {
	f, err := configutil.Decode[file](contents)
	if err != nil {
		return Catalog{}, fmt.Errorf("decode catalog: %w", err)
	}
	return f.toCatalog()
}

func (f file) toCatalog() (Catalog, error) {
	err := validate.Struct(f)
	if err != nil {
		return Catalog{}, formatValidationErrors(err)
	}

	seen := map[string]bool{}
	out := Catalog{
		Products:      make([]ProductDefinition, 0, len(f.Products)),
		Gallery:       f.Gallery,
		ProductImages: f.ProductImages,
	}
	if out.ProductImages == nil {
		out.ProductImages = map[string]string{}
	}

	for _, entry := range f.Products {
		if seen[entry.Slug] {
			return Catalog{}, fmt.Errorf("duplicate product slug %q", entry.Slug)
		}
		seen[entry.Slug] = true

		def, err := entry.toDefinition()
		if err != nil {
			return Catalog{}, fmt.Errorf("product %q: %w", entry.Slug, err)
		}
		out.Products = append(out.Products, def)
	}

	return out, nil
}

func (e productEntry) toDefinition() (ProductDefinition, error) {
	price, err := ParsePrice(e.Price)
	if err != nil {
		return ProductDefinition{}, fmt.Errorf("price: %w", err)
	}

	var salePrice *Price
	if e.SalePrice != "" {
		parsed, err := ParsePrice(e.SalePrice)
		if err != nil {
			return ProductDefinition{}, fmt.Errorf("sale_price: %w", err)
		}
		salePrice = &parsed
	}

	return ProductDefinition{
		Name:            e.Name,
		Slug:            e.Slug,
		Description:     e.Description,
		LongDescription: e.LongDescription,
		Price:           price,
		SalePrice:       salePrice,
		Sku:             e.Sku,
		StockQuantity:   e.StockQuantity,
		CategorySlug:    e.CategorySlug,
		IsFeatured:      e.IsFeatured,
		IsActive:        e.IsActive,
		Images:          e.Images,
	}, nil
}

func formatValidationErrors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate catalog: %w", err)
	}

	errs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		errs = append(errs, fmt.Errorf("%s: failed '%s' check", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid catalog: %w", errors.Join(errs...))
}
