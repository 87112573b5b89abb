package storefront

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// ProductPayload is the body of a product creation request.
type ProductPayload struct {
	Name            string `json:"name"`
	Slug            string `json:"slug"`
	Description     string `json:"description"`
	LongDescription string `json:"long_description"`
	Price           string `json:"price"`
	// SalePrice is left out of the body entirely when nil.
	SalePrice         *string `json:"sale_price,omitempty"`
	Sku               string  `json:"sku"`
	StockQuantity     int     `json:"stock_quantity"`
	TrackInventory    bool    `json:"track_inventory"`
	LowStockThreshold int     `json:"low_stock_threshold"`
	IsFeatured        bool    `json:"is_featured"`
	IsActive          bool    `json:"is_active"`
	AllowReviews      bool    `json:"allow_reviews"`
	CategoryIds       []int   `json:"category_ids"`
}

// the creation endpoint answers with either a bare product or a
// {data: product} envelope
type productEnvelope struct {
	Product
	Data *Product `json:"data"`
}

func decodeProduct(body []byte) (Product, error) {
	var env productEnvelope
	err := json.Unmarshal(body, &env)
	if err != nil {
		return Product{}, err
	}
	if env.Data != nil && env.Id == 0 {
		return *env.Data, nil
	}
	return env.Product, nil
}

func isCreated(status int) bool {
	return status == http.StatusOK || status == http.StatusCreated
}

func (s *Session) CreateProduct(ctx context.Context, payload ProductPayload) (Product, error) {
	res, err := s.http.R().
		SetContext(ctx).
		SetHeader("accept", "application/json").
		SetBody(payload).
		Post("/api/admin/products")
	if err != nil {
		s.tel.ReportBroken(report_session_create_product, payload.Slug, err)
		return Product{}, fmt.Errorf("create product %s: %w", payload.Slug, err)
	}
	if !isCreated(res.StatusCode()) {
		err := newStatusError(ErrUnexpectedStatus, "create product "+payload.Slug, res.StatusCode(), res.Body())
		s.tel.ReportBroken(report_session_create_product, payload.Slug, err)
		return Product{}, err
	}

	product, err := decodeProduct(res.Body())
	if err != nil {
		s.tel.ReportBroken(report_session_create_product, payload.Slug, fmt.Errorf("unmarshal json: %w", err))
		return Product{}, fmt.Errorf("create product %s: %w", payload.Slug, err)
	}
	if product.Id == 0 {
		err := fmt.Errorf("create product %s: response did not contain an id", payload.Slug)
		s.tel.ReportBroken(report_session_create_product, err)
		return Product{}, err
	}
	return product, nil
}
