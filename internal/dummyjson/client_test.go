package dummyjson

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/xenking/product-showcase/internal/domain/product"
)

const productOneJSON = `{
	"id": 1,
	"title": "Essence Mascara Lash Princess",
	"description": "Popular mascara.",
	"category": "beauty",
	"price": 9.99,
	"discountPercentage": 10.00,
	"rating": 4.94,
	"stock": 5,
	"tags": ["beauty", "mascara"],
	"brand": "Essence",
	"sku": "RCH45Q1A",
	"dimensions": {"width": 23.17, "height": 14.43, "depth": 28.01},
	"reviews": [{"rating": 2, "comment": "Very unhappy!"}],
	"meta": {"barcode": "9164035109868"},
	"thumbnail": "https://cdn.dummyjson.com/products/images/beauty/1/thumbnail.png",
	"images": ["https://cdn.dummyjson.com/products/images/beauty/1/1.png"]
}`

func productOne() *product.Record {
	return &product.Record{
		ID:                 1,
		Title:              "Essence Mascara Lash Princess",
		Description:        "Popular mascara.",
		Category:           "beauty",
		Brand:              "Essence",
		Price:              decimal.RequireFromString("9.99"),
		DiscountPercentage: decimal.RequireFromString("10.00"),
		Rating:             decimal.RequireFromString("4.94"),
		Stock:              5,
		Thumbnail:          "https://cdn.dummyjson.com/products/images/beauty/1/thumbnail.png",
		Images:             []string{"https://cdn.dummyjson.com/products/images/beauty/1/1.png"},
	}
}

// decimalComparer compares decimals by value so 10.00 equals 10.
var decimalComparer = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, Options{HTTPClient: srv.Client(), UserAgent: "showcase-test"})
	require.NoError(t, err)
	return c
}

func TestFetchByID(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/1", r.URL.Path)
		assert.Equal(t, "showcase-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(productOneJSON))
	}))

	got, err := c.FetchByID(context.Background(), 1)
	require.NoError(t, err)
	if diff := cmp.Diff(productOne(), got, decimalComparer); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestFetchByID_NullBody(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("null"))
	}))

	got, err := c.FetchByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFetchByID_StatusError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Product with id '999' not found"}`))
	}))

	_, err := c.FetchByID(context.Background(), 999)
	require.Error(t, err)

	var se *product.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Equal(t, "Failed to fetch product: 404 Not Found", err.Error())
}

func TestFetchByID_MalformedBody(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id": "one"}`))
	}))

	_, err := c.FetchByID(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode product")

	var se *product.StatusError
	assert.False(t, errors.As(err, &se))
}

func TestFetchByID_TrailingData(t *testing.T) {
	for _, body := range []string{
		`{"id":3,"price":9.99}garbage`,
		`{"id":3} {"id":4}`,
		`null null`,
		`{"id": 3`,
	} {
		t.Run(body, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(body))
			}))

			got, err := c.FetchByID(context.Background(), 3)
			require.Error(t, err)
			assert.Nil(t, got)
			assert.Contains(t, err.Error(), "invalid product body")

			var se *product.StatusError
			assert.False(t, errors.As(err, &se))
		})
	}
}

func TestFetchPage_TrailingData(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"products":[],"total":0,"skip":0,"limit":10}]`))
	}))

	_, err := c.FetchPage(context.Background(), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid products body")
}

func TestFetchByID_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(url, Options{})
	require.NoError(t, err)

	_, err = c.FetchByID(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "send request")
}

func TestFetchPage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("limit"))

		var items []string
		for i := 1; i <= 3; i++ {
			items = append(items, fmt.Sprintf(`{"id":%d,"title":"Item %d","price":%d.5,"discountPercentage":0,"stock":%d}`, i, i, i, i-1))
		}
		_, _ = fmt.Fprintf(w, `{"products":[%s],"total":194,"skip":0,"limit":3}`, strings.Join(items, ","))
	}))

	page, err := c.FetchEnvelope(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 194, page.Total)
	assert.Equal(t, 0, page.Skip)
	assert.Equal(t, 3, page.Limit)
	require.Len(t, page.Products, 3)
	for i, p := range page.Products {
		assert.Equal(t, i+1, p.ID)
		assert.Equal(t, fmt.Sprintf("Item %d", i+1), p.Title)
	}
	assert.True(t, decimal.RequireFromString("2.5").Equal(page.Products[1].Price))

	products, err := c.FetchPage(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, products, 3)
}

func TestFetchPage_Empty(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"total":0,"skip":0,"limit":0}`))
	}))

	products, err := c.FetchPage(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)
}

func TestFetchPage_StatusError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := c.FetchPage(context.Background(), 10)
	require.EqualError(t, err, "Failed to fetch products: 503 Service Unavailable")
}

func TestNew_InstrumentsClientWithoutTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(productOneJSON))
	}))
	t.Cleanup(srv.Close)

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	supplied := &http.Client{Timeout: 3 * time.Second}
	c, err := New(srv.URL, Options{HTTPClient: supplied, MeterProvider: mp})
	require.NoError(t, err)

	assert.Nil(t, supplied.Transport)
	assert.Equal(t, 3*time.Second, c.HTTPClient().Timeout)
	assert.NotNil(t, c.HTTPClient().Transport)

	_, err = c.FetchByID(context.Background(), 1)
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var scopes []string
	for _, sm := range rm.ScopeMetrics {
		if len(sm.Metrics) > 0 {
			scopes = append(scopes, sm.Scope.Name)
		}
	}
	assert.Contains(t, scopes, "go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp")
}

func TestNew_KeepsCustomTransport(t *testing.T) {
	supplied := &http.Client{Transport: http.DefaultTransport}
	c, err := New("http://localhost", Options{HTTPClient: supplied})
	require.NoError(t, err)
	assert.Same(t, http.DefaultTransport, c.HTTPClient().Transport)
}

func TestURLs(t *testing.T) {
	c, err := New("https://dummyjson.com/", Options{})
	require.NoError(t, err)

	assert.Equal(t, "https://dummyjson.com/products/42", c.ProductURL(42))
	assert.Equal(t, "https://dummyjson.com/products?limit=10", c.ListURL(10))
}

func TestNew_InvalidBaseURL(t *testing.T) {
	_, err := New("dummyjson.com", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be absolute")
}
