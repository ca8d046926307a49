// Package dummyjson implements product.Repository on top of the DummyJSON
// public REST API.
package dummyjson

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/product-showcase/internal/domain/product"
)

// DefaultBaseURL is the public DummyJSON endpoint.
const DefaultBaseURL = "https://dummyjson.com"

const productsPath = "/products"

// maxBodySize bounds upstream responses. A larger body fails validation.
const maxBodySize = 8 << 20

var _ product.Repository = (*Client)(nil)

// Options configures a Client. Zero values select defaults.
type Options struct {
	// HTTPClient performs requests. When it is nil or has no Transport, a
	// copy with an otelhttp transport reporting to TracerProvider and
	// MeterProvider is used. A client with its own Transport is used as is.
	HTTPClient *http.Client

	UserAgent      string
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// Client fetches product records from DummyJSON.
type Client struct {
	http      *http.Client
	base      *url.URL
	userAgent string
	tracer    trace.Tracer
}

// New returns a Client for the given base URL.
func New(baseURL string, opts Options) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.Errorf("base url %q must be absolute", baseURL)
	}

	tp := opts.TracerProvider
	if tp == nil {
		tp = tracenoop.NewTracerProvider()
	}

	var httpClient http.Client
	if opts.HTTPClient != nil {
		httpClient = *opts.HTTPClient
	}
	if httpClient.Transport == nil {
		transportOpts := []otelhttp.Option{otelhttp.WithTracerProvider(tp)}
		if opts.MeterProvider != nil {
			transportOpts = append(transportOpts, otelhttp.WithMeterProvider(opts.MeterProvider))
		}
		httpClient.Transport = otelhttp.NewTransport(http.DefaultTransport, transportOpts...)
	}

	return &Client{
		http:      &httpClient,
		base:      base,
		userAgent: opts.UserAgent,
		tracer:    tp.Tracer("github.com/xenking/product-showcase/internal/dummyjson"),
	}, nil
}

// HTTPClient returns the client used for upstream requests.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// ProductURL returns the detail URL for id.
func (c *Client) ProductURL(id int) string {
	u := *c.base
	u.Path += productsPath + "/" + strconv.Itoa(id)
	return u.String()
}

// ListURL returns the listing URL for limit.
func (c *Client) ListURL(limit int) string {
	u := *c.base
	u.Path += productsPath
	u.RawQuery = url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
	return u.String()
}

// FetchByID fetches one product. A JSON null body yields (nil, nil).
func (c *Client) FetchByID(ctx context.Context, id int) (_ *product.Record, rerr error) {
	ctx, span := c.tracer.Start(ctx, "dummyjson.FetchByID",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.Int("product.id", id)),
	)
	defer func() { endSpan(span, rerr) }()

	var rec *product.Record
	err := c.get(ctx, c.ProductURL(id), product.ResourceProduct, func(d *jx.Decoder) error {
		r, err := decodeRecord(d)
		if err != nil {
			return errors.Wrap(err, "decode product")
		}
		rec = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// FetchPage fetches up to limit products and returns only the product list.
func (c *Client) FetchPage(ctx context.Context, limit int) ([]product.Record, error) {
	page, err := c.FetchEnvelope(ctx, limit)
	if err != nil {
		return nil, err
	}
	return page.Products, nil
}

// FetchEnvelope fetches up to limit products along with pagination metadata.
func (c *Client) FetchEnvelope(ctx context.Context, limit int) (_ *product.Page, rerr error) {
	ctx, span := c.tracer.Start(ctx, "dummyjson.FetchPage",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.Int("page.limit", limit)),
	)
	defer func() { endSpan(span, rerr) }()

	var page *product.Page
	err := c.get(ctx, c.ListURL(limit), product.ResourceProducts, func(d *jx.Decoder) error {
		p, err := decodePage(d)
		if err != nil {
			return errors.Wrap(err, "decode products")
		}
		page = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	if page.Products == nil {
		page.Products = []product.Record{}
	}
	return page, nil
}

// get issues a GET and hands a 2xx body to decode. Non-2xx statuses map to
// *product.StatusError.
func (c *Client) get(ctx context.Context, target, resource string, decode func(*jx.Decoder) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "send request")
	}
	defer func() { _ = resp.Body.Close() }()

	zctx.From(ctx).Debug("Upstream response",
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return &product.StatusError{
			Resource:   resource,
			Code:       resp.StatusCode,
			StatusText: statusText(resp),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return errors.Wrap(err, "read body")
	}
	// Validate rejects truncated bodies and trailing data after the value.
	if err := jx.DecodeBytes(body).Validate(); err != nil {
		return errors.Wrapf(err, "invalid %s body", resource)
	}
	return decode(jx.DecodeBytes(body))
}

// statusText extracts the reason phrase from resp.Status, falling back to the
// canonical text for the code.
func statusText(resp *http.Response) string {
	if text, ok := strings.CutPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" "); ok && text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
