// Package sourcesite discovers product images on the WooCommerce site the
// catalog is migrated from.
package sourcesite

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"catalog-migrator/internal/components/assert"
	"catalog-migrator/internal/components/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	report_client_product_images = "client.product-images"
	report_client_clean_url      = "client.clean-url"
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
}

// thumbnail and scaled variants wordpress generates next to the original upload
var sizeSuffix = regexp.MustCompile(`-(?:\d+x\d+|scaled)(\.[A-Za-z0-9]+)$`)

type Client struct {
	BaseUrl *url.URL

	http *resty.Client
	tel  telemetry.API
}

func NewClient(baseUrl string, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel, "telemetry")
	assert.NotEmptyStr(baseUrl, "source site base url")
	tel = telemetry.NewScopedAPI("source_site", tel)

	parsed, err := url.Parse(baseUrl)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(baseUrl)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(parsed.Hostname()))
	client.SetTimeout(time.Second * 30)

	// 2 requests max per second
	// max burst >= 2 just means that no requests will be dropped
	rateLimiter := rate.NewLimiter(2, 2)
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(client, tel)

	return &Client{
		BaseUrl: parsed,
		http:    client,
		tel:     tel,
	}, nil
}

// ProductImages scrapes /product/<slug>/ and returns the full size image urls
// found on it in discovery order.
func (c *Client) ProductImages(ctx context.Context, slug string) ([]string, error) {
	pagePath := fmt.Sprintf("/product/%s/", url.PathEscape(slug))
	res, err := c.http.R().
		SetContext(ctx).
		Get(pagePath)
	if err != nil {
		c.tel.ReportBroken(report_client_product_images, slug, err)
		return nil, fmt.Errorf("fetch product page %s: %w", slug, err)
	}
	if res.StatusCode() != http.StatusOK {
		err := fmt.Errorf("fetch product page %s: status %d", slug, res.StatusCode())
		c.tel.ReportWarning(report_client_product_images, slug, err)
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		c.tel.ReportBroken(report_client_product_images, slug, fmt.Errorf("parse html: %w", err))
		return nil, err
	}

	pageUrl := c.BaseUrl.ResolveReference(&url.URL{Path: pagePath})
	var out []string
	seen := map[string]bool{}
	for _, raw := range ExtractImageUrls(doc) {
		ref, err := url.Parse(raw)
		if err != nil {
			c.tel.ReportWarning(report_client_clean_url, raw, err)
			continue
		}
		cleaned := CleanImageUrl(pageUrl.ResolveReference(ref).String())
		if !IsAllowedImage(cleaned) || seen[cleaned] {
			continue
		}
		seen[cleaned] = true
		out = append(out, cleaned)
	}

	c.tel.ReportDebug(report_client_product_images, slug, len(out))
	return out, nil
}

// ExtractImageUrls collects candidate image urls from a WooCommerce product page:
// gallery `data-large_image` attributes, the og:image meta tag and the
// `wp-post-image` featured image, duplicates removed.
func ExtractImageUrls(doc *goquery.Document) []string {
	var found []string
	seen := map[string]bool{}
	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			return
		}
		seen[v] = true
		found = append(found, v)
	}

	doc.Find("[data-large_image]").Each(func(_ int, s *goquery.Selection) {
		add(s.AttrOr("data-large_image", ""))
	})
	doc.Find(`meta[property="og:image"]`).Each(func(_ int, s *goquery.Selection) {
		add(s.AttrOr("content", ""))
	})
	doc.Find("img.wp-post-image").Each(func(_ int, s *goquery.Selection) {
		add(s.AttrOr("src", ""))
	})

	return found
}

// CleanImageUrl drops the query string and the size suffix wordpress appends to
// resized uploads (-150x150, -300x300, -scaled), which points at the original.
func CleanImageUrl(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	parsed.RawQuery = ""
	parsed.Fragment = ""
	parsed.Path = sizeSuffix.ReplaceAllString(parsed.Path, "$1")
	return parsed.String()
}

// IsAllowedImage reports whether the url looks like an image the storefront
// accepts, urls without an extension are let through.
func IsAllowedImage(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	ext := strings.ToLower(path.Ext(parsed.Path))
	if ext == "" {
		return true
	}
	return allowedExtensions[ext]
}
