package storefront

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// DefaultCategoryId is what products fall back to when their category slug is
// unknown to the storefront.
const DefaultCategoryId = 1

type Product struct {
	Id   int    `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type Category struct {
	Id   int    `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// CategoryMap maps a category slug to its storefront id, it is read-only once built.
type CategoryMap map[string]int

func NewCategoryMap(categories []Category) CategoryMap {
	out := make(CategoryMap, len(categories))
	for _, c := range categories {
		out[c.Slug] = c.Id
	}
	return out
}

func (m CategoryMap) Resolve(slug string) (int, bool) {
	id, ok := m[slug]
	return id, ok
}

type productPage struct {
	Data        []Product `json:"data"`
	CurrentPage int       `json:"current_page"`
	NextPageUrl *string   `json:"next_page_url"`
}

// pageRepeated is true when a listing ignored the requested page, either by
// reporting another page number or by starting with the previous page's first
// product.
func pageRepeated(parsed productPage, requested, previousFirstId int) bool {
	if parsed.CurrentPage != 0 && parsed.CurrentPage != requested {
		return true
	}
	return len(parsed.Data) > 0 && parsed.Data[0].Id == previousFirstId
}

// ListProducts returns every product the public listing exposes, in listing
// order, following pagination when the listing is paginated.
func (s *Session) ListProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	page := 1
	firstId := 0

	for {
		req := s.http.R().SetContext(ctx)
		if page > 1 {
			req.SetQueryParam("page", strconv.Itoa(page))
		}
		res, err := req.Get("/api/public/products")
		if err != nil {
			s.tel.ReportBroken(report_session_list_products, err)
			return nil, fmt.Errorf("list products: %w", err)
		}
		if res.StatusCode() != http.StatusOK {
			err := newStatusError(ErrUnexpectedStatus, "list products", res.StatusCode(), res.Body())
			s.tel.ReportBroken(report_session_list_products, err)
			return nil, err
		}

		var parsed productPage
		err = json.Unmarshal(res.Body(), &parsed)
		if err != nil {
			s.tel.ReportBroken(report_session_list_products, fmt.Errorf("unmarshal json: %w", err))
			return nil, fmt.Errorf("list products: %w", err)
		}
		if page > 1 && pageRepeated(parsed, page, firstId) {
			s.tel.ReportWarning(report_session_list_products, "pagination did not advance", page, parsed.CurrentPage)
			break
		}
		products = append(products, parsed.Data...)
		if len(parsed.Data) > 0 {
			firstId = parsed.Data[0].Id
		}

		if parsed.NextPageUrl == nil || *parsed.NextPageUrl == "" || len(parsed.Data) == 0 {
			break
		}
		page++
	}

	s.tel.ReportCount(report_session_list_products, int64(len(products)))
	return products, nil
}

// ListCategories fetches the category listing, an empty listing is an empty
// map and not an error.
func (s *Session) ListCategories(ctx context.Context) (CategoryMap, error) {
	res, err := s.http.R().
		SetContext(ctx).
		Get("/api/public/categories")
	if err != nil {
		s.tel.ReportBroken(report_session_list_categories, err)
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if res.StatusCode() != http.StatusOK {
		err := newStatusError(ErrUnexpectedStatus, "list categories", res.StatusCode(), res.Body())
		s.tel.ReportBroken(report_session_list_categories, err)
		return nil, err
	}

	var categories []Category
	err = json.Unmarshal(res.Body(), &categories)
	if err != nil {
		s.tel.ReportBroken(report_session_list_categories, fmt.Errorf("unmarshal json: %w", err))
		return nil, fmt.Errorf("list categories: %w", err)
	}

	s.tel.ReportCount(report_session_list_categories, int64(len(categories)))
	return NewCategoryMap(categories), nil
}
