package storefront

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListProducts(t *testing.T) {
	fake, srv := newFakeStorefront(t)
	fake.handle("GET", "/api/public/products", jsonHandler(http.StatusOK, `{"data":[
		{"id": 7, "slug": "wavy-flag", "name": "Wavy Flag"},
		{"id": 9, "slug": "cornhole-scoreboard", "name": "Scoreboard"}
	]}`))

	s, _ := newTestSession(t, srv.URL)
	products, err := s.ListProducts(context.Background())
	require.NoError(t, err)
	require.Equal(t, []Product{
		{Id: 7, Slug: "wavy-flag", Name: "Wavy Flag"},
		{Id: 9, Slug: "cornhole-scoreboard", Name: "Scoreboard"},
	}, products)
	require.Len(t, fake.paths(), 1)
}

func TestListProductsFollowsPages(t *testing.T) {
	fake, srv := newFakeStorefront(t)
	fake.handle("GET", "/api/public/products", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "":
			jsonHandler(http.StatusOK, fmt.Sprintf(
				`{"current_page":1,"next_page_url":"%s/api/public/products?page=2","data":[{"id":1,"slug":"a","name":"A"}]}`,
				"http://"+r.Host,
			))(w, r)
		case "2":
			jsonHandler(http.StatusOK, `{"current_page":2,"next_page_url":null,"data":[{"id":2,"slug":"b","name":"B"}]}`)(w, r)
		default:
			t.Errorf("unexpected page %s", r.URL.Query().Get("page"))
			w.WriteHeader(http.StatusBadRequest)
		}
	})

	s, _ := newTestSession(t, srv.URL)
	products, err := s.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	require.Equal(t, "b", products[1].Slug)
}

func TestListProductsStopsWhenPageRepeats(t *testing.T) {
	table := []struct {
		name string
		body string
	}{
		{
			name: "page number does not advance",
			body: `{"current_page":1,"next_page_url":"http://%s/api/public/products?page=2","data":[{"id":1,"slug":"a","name":"A"}]}`,
		},
		{
			name: "no page number, same first product",
			body: `{"next_page_url":"http://%s/api/public/products?page=2","data":[{"id":1,"slug":"a","name":"A"}]}`,
		},
	}

	for _, test := range table {
		t.Run(test.name, func(t *testing.T) {
			fake, srv := newFakeStorefront(t)
			fake.handle("GET", "/api/public/products", func(w http.ResponseWriter, r *http.Request) {
				jsonHandler(http.StatusOK, fmt.Sprintf(test.body, r.Host))(w, r)
			})

			s, tel := newTestSession(t, srv.URL)
			products, err := s.ListProducts(context.Background())
			require.NoError(t, err)
			require.Equal(t, []Product{{Id: 1, Slug: "a", Name: "A"}}, products)
			require.Len(t, fake.paths(), 2)
			require.Len(t, tel.Find("warning", report_session_list_products), 1)
		})
	}
}

func TestListProductsFailure(t *testing.T) {
	fake, srv := newFakeStorefront(t)
	fake.handle("GET", "/api/public/products", jsonHandler(http.StatusInternalServerError, `oops`))

	s, tel := newTestSession(t, srv.URL)
	_, err := s.ListProducts(context.Background())
	require.ErrorIs(t, err, ErrUnexpectedStatus)
	require.Len(t, tel.Find("broken", report_session_list_products), 1)
}

func TestListCategories(t *testing.T) {
	fake, srv := newFakeStorefront(t)
	fake.handle("GET", "/api/public/categories", jsonHandler(http.StatusOK, `[
		{"id": 3, "slug": "cornhole-boards", "name": "Cornhole Boards"},
		{"id": 4, "slug": "cnc-signs", "name": "CNC Signs"}
	]`))

	s, _ := newTestSession(t, srv.URL)
	categories, err := s.ListCategories(context.Background())
	require.NoError(t, err)
	require.Equal(t, CategoryMap{"cornhole-boards": 3, "cnc-signs": 4}, categories)

	id, ok := categories.Resolve("cnc-signs")
	require.True(t, ok)
	require.Equal(t, 4, id)

	_, ok = categories.Resolve("live-edge-furniture")
	require.False(t, ok)
}

func TestListCategoriesEmptyAndFailure(t *testing.T) {
	fake, srv := newFakeStorefront(t)
	fake.handle("GET", "/api/public/categories", jsonHandler(http.StatusOK, `[]`))

	s, _ := newTestSession(t, srv.URL)
	categories, err := s.ListCategories(context.Background())
	require.NoError(t, err)
	require.NotNil(t, categories)
	require.Empty(t, categories)

	fake.handle("GET", "/api/public/categories", jsonHandler(http.StatusUnauthorized, `{}`))
	_, err = s.ListCategories(context.Background())
	require.ErrorIs(t, err, ErrUnexpectedStatus)
}
