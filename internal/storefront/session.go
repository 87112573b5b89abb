// Package storefront is a client for the destination shop's REST API.
//
// Every call goes through a Session, the Session owns the cookie jar that the
// login populates so it must be created once per run and handed to whoever
// needs to talk to the storefront.
package storefront

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"catalog-migrator/internal/components/assert"
	"catalog-migrator/internal/components/telemetry"

	"github.com/go-resty/resty/v2"
)

const (
	report_session_login           = "session.login"
	report_session_list_products   = "session.list-products"
	report_session_list_categories = "session.list-categories"
	report_session_create_product  = "session.create-product"
	report_session_upload_image    = "session.upload-image"
)

const userAgent = "catalog-migrator/1.0"

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Options struct {
	// BaseUrl is the site root, ex. https://shop.example.com
	BaseUrl string
	// Timeout applies to every storefront request, 0 disables it.
	Timeout time.Duration
}

type Session struct {
	BaseUrl *url.URL

	http *resty.Client
	tel  telemetry.API
}

func NewSession(opts Options, tel telemetry.API) (*Session, error) {
	assert.NotNil(tel, "telemetry")
	assert.NotEmptyStr(opts.BaseUrl, "storefront base url")
	tel = telemetry.NewScopedAPI("storefront", tel)

	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	client.SetCookieJar(jar)
	client.SetHeader("user-agent", userAgent)
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}

	s := &Session{
		BaseUrl: baseUrl,
		http:    client,
		tel:     tel,
	}
	client.OnBeforeRequest(s.attachXsrfToken)
	telemetry.InstrumentResty(client, tel)

	return s, nil
}

// Login performs the two step sanctum login and returns the authenticated session.
func Login(ctx context.Context, opts Options, creds Credentials, tel telemetry.API) (*Session, error) {
	s, err := NewSession(opts, tel)
	if err != nil {
		return nil, err
	}
	err = s.Login(ctx, creds)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) Login(ctx context.Context, creds Credentials) error {
	res, err := s.http.R().
		SetContext(ctx).
		Get("/sanctum/csrf-cookie")
	if err != nil {
		s.tel.ReportBroken(report_session_login, fmt.Errorf("csrf cookie request: %w", err))
		return fmt.Errorf("%w: %w", ErrCsrfCookie, err)
	}
	if res.StatusCode() != http.StatusNoContent {
		err := newStatusError(ErrCsrfCookie, "get csrf cookie", res.StatusCode(), res.Body())
		s.tel.ReportBroken(report_session_login, err)
		return err
	}

	res, err = s.http.R().
		SetContext(ctx).
		SetHeader("accept", "application/json").
		SetBody(creds).
		Post("/api/login")
	if err != nil {
		s.tel.ReportBroken(report_session_login, fmt.Errorf("login request: %w", err))
		return fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}
	if res.StatusCode() != http.StatusOK {
		err := newStatusError(ErrLoginFailed, "login", res.StatusCode(), res.Body())
		s.tel.ReportBroken(report_session_login, err)
		return err
	}

	s.tel.ReportDebug(report_session_login, creds.Email)
	return nil
}

// attachXsrfToken echoes the XSRF-TOKEN cookie back as a header, which is how
// sanctum expects stateful clients to prove the cookie was read.
func (s *Session) attachXsrfToken(c *resty.Client, req *resty.Request) error {
	jar := c.GetClient().Jar
	if jar == nil {
		return nil
	}
	for _, cookie := range jar.Cookies(s.BaseUrl) {
		if cookie.Name != "XSRF-TOKEN" {
			continue
		}
		token, err := url.QueryUnescape(cookie.Value)
		if err != nil {
			token = cookie.Value
		}
		req.SetHeader("X-XSRF-TOKEN", token)
	}
	return nil
}
