// Package gateway decides, per request, whether to proxy a request to the
// storefront origin untouched or to serve a crawler-ready rewrite of the
// application shell.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"strings"
	"time"

	whatwgUrl "github.com/nlnwa/whatwg-url/url"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/render-gateway/internal/events"
	"github.com/JakeFAU/render-gateway/internal/hash/sha256"
	"github.com/JakeFAU/render-gateway/internal/origin"
	"github.com/JakeFAU/render-gateway/internal/policy"
	"github.com/JakeFAU/render-gateway/internal/product"
	"github.com/JakeFAU/render-gateway/internal/render"
	"github.com/JakeFAU/render-gateway/internal/route"
	"github.com/JakeFAU/render-gateway/internal/telemetry"
	"github.com/JakeFAU/render-gateway/internal/traffic"
)

// Decision is the terminal state of one request.
type Decision string

// Decisions.
const (
	// DecisionPassthrough proxies the request because it was not escalated.
	DecisionPassthrough Decision = "passthrough"
	// DecisionRewritten serves the shell with synthesized product metadata.
	DecisionRewritten Decision = "rewritten"
	// DecisionDegraded serves the shell with only the visibility block
	// because the product lookup failed.
	DecisionDegraded Decision = "degraded"
	// DecisionForceVisible serves a non-product shell with the visibility
	// block. Only reachable with ForceVisibleAllRoutes.
	DecisionForceVisible Decision = "force-visible"
	// DecisionSkipped serves the origin document unchanged because it has no
	// head to rewrite.
	DecisionSkipped Decision = "skipped"
	// DecisionPassthroughOnFailure proxies the original request after the
	// shell fetch failed or escalation panicked.
	DecisionPassthroughOnFailure Decision = "passthrough-on-failure"
)

// Proxied reports whether the decision hands the request to the origin.
func (d Decision) Proxied() bool {
	return d == DecisionPassthrough || d == DecisionPassthroughOnFailure
}

var urlParser = whatwgUrl.NewParser(whatwgUrl.WithPercentEncodeSinglePercentSign())

// Options wires a Handler.
type Options struct {
	// OriginURL is where passthrough traffic is proxied.
	OriginURL string
	// CanonicalBaseURL overrides the request host when building og:url.
	CanonicalBaseURL string
	ProductPrefix    string
	// Products may be nil, in which case product routes pass through.
	Products    product.Source
	Origin      origin.Fetcher
	Transformer *render.Transformer
	Emitter     *events.Emitter
	// ProductTimeout and OriginTimeout bound each dependency call when
	// positive. Fetchers carry their own timeouts as well.
	ProductTimeout        time.Duration
	OriginTimeout         time.Duration
	ForceVisibleAllRoutes bool
	Logger                *zap.Logger
}

// Handler is the gateway's single entry point. It is safe for concurrent use.
type Handler struct {
	matcher       route.Matcher
	products      product.Source
	origin        origin.Fetcher
	transformer   *render.Transformer
	emitter       *events.Emitter
	proxy         *httputil.ReverseProxy
	canonicalBase string
	productTO     time.Duration
	originTO      time.Duration
	forceVisible  bool
	logger        *zap.Logger
}

// New validates opts and builds a Handler.
func New(opts Options) (*Handler, error) {
	target, err := url.Parse(opts.OriginURL)
	if err != nil || target.Host == "" || (target.Scheme != "http" && target.Scheme != "https") {
		return nil, fmt.Errorf("origin url must be an absolute http(s) URL: %q", opts.OriginURL)
	}
	if opts.Origin == nil {
		return nil, errors.New("origin fetcher is required")
	}
	if opts.CanonicalBaseURL != "" {
		if _, err := urlParser.Parse(opts.CanonicalBaseURL); err != nil {
			return nil, fmt.Errorf("parse canonical base url: %w", err)
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("gateway")
	transformer := opts.Transformer
	if transformer == nil {
		transformer = render.New(render.DefaultOptions())
	}
	if opts.Products == nil {
		logger.Warn("product source not configured; product routes pass through")
	}

	return &Handler{
		matcher:       route.NewMatcher(opts.ProductPrefix),
		products:      opts.Products,
		origin:        opts.Origin,
		transformer:   transformer,
		emitter:       opts.Emitter,
		proxy:         newProxy(target, logger),
		canonicalBase: opts.CanonicalBaseURL,
		productTO:     opts.ProductTimeout,
		originTO:      opts.OriginTimeout,
		forceVisible:  opts.ForceVisibleAllRoutes,
		logger:        logger,
	}, nil
}

func newProxy(target *url.URL, logger *zap.Logger) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		ModifyResponse: func(resp *http.Response) error {
			policy.Passthrough(resp.Header)
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Warn("origin unreachable", zap.String("path", r.URL.Path), zap.Error(err))
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("bad gateway\n"))
		},
	}
}

// Result is the outcome of Render. Proxied results carry no body.
type Result struct {
	Decision       Decision
	Classification traffic.Classification
	Route          route.Match
	Header         http.Header
	Body           []byte
	ProductErr     error
	OriginErr      error
}

// ServeHTTP renders crawler traffic and proxies everything else.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	res := h.Render(r.Context(), r)
	if res.Decision.Proxied() {
		h.proxy.ServeHTTP(w, r)
		return
	}
	policy.Apply(w.Header(), res.Header)
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(res.Body); err != nil {
		h.logger.Debug("response write failed", zap.Error(err))
	}
}

// Render runs classification, route matching and, when escalated, the fetch
// and rewrite pipeline. It never writes to the client.
func (h *Handler) Render(ctx context.Context, r *http.Request) (res Result) {
	start := time.Now()
	res.Classification = traffic.Classify(r.UserAgent())
	res.Route = h.matcher.Match(r.URL.Path)
	res.Decision = DecisionPassthrough

	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("panic during escalation; passing through",
				zap.Any("panic", rec), zap.String("path", r.URL.Path))
			res.Decision = DecisionPassthroughOnFailure
			res.Header, res.Body = nil, nil
		}
		h.finish(r, res, time.Since(start))
	}()

	switch {
	case !h.escalates(r, res.Classification, res.Route):
		return res
	case res.Route.IsProduct():
		h.renderProduct(ctx, r, &res)
	default:
		h.renderShell(ctx, r, &res)
	}
	return res
}

func (h *Handler) escalates(r *http.Request, c traffic.Classification, m route.Match) bool {
	if r.Method != http.MethodGet || !c.IsCrawler() {
		return false
	}
	if !m.IsProduct() {
		return h.forceVisible
	}
	if h.products == nil {
		h.logger.Debug("crawler on product route without product source", zap.String("path", r.URL.Path))
		return false
	}
	return true
}

func (h *Handler) renderProduct(ctx context.Context, r *http.Request, res *Result) {
	var (
		p   product.Product
		doc origin.Document
		g   errgroup.Group
	)
	// Neither call cancels the other; both outcomes are needed.
	g.Go(func() error {
		defer recoverInto(&res.ProductErr)
		p, res.ProductErr = h.fetchProduct(ctx, res.Route.ProductID)
		return nil
	})
	g.Go(func() error {
		defer recoverInto(&res.OriginErr)
		doc, res.OriginErr = h.fetchOrigin(ctx, r)
		return nil
	})
	_ = g.Wait()

	if res.OriginErr != nil {
		res.Decision = DecisionPassthroughOnFailure
		return
	}
	var enriched *product.Product
	res.Decision = DecisionDegraded
	if res.ProductErr == nil {
		enriched = &p
		res.Decision = DecisionRewritten
	}
	h.rewrite(ctx, r, res, doc, enriched)
}

// recoverInto turns a panic in a fetch goroutine into an error, since the
// handler's own recover cannot see it.
func recoverInto(dst *error) {
	if rec := recover(); rec != nil {
		*dst = fmt.Errorf("panic: %v", rec)
	}
}

func (h *Handler) renderShell(ctx context.Context, r *http.Request, res *Result) {
	doc, err := h.fetchOrigin(ctx, r)
	if err != nil {
		res.OriginErr = err
		res.Decision = DecisionPassthroughOnFailure
		return
	}
	res.Decision = DecisionForceVisible
	h.rewrite(ctx, r, res, doc, nil)
}

func (h *Handler) rewrite(ctx context.Context, r *http.Request, res *Result, doc origin.Document, p *product.Product) {
	_, span := telemetry.Tracer().Start(ctx, "gateway.rewrite",
		trace.WithAttributes(attribute.Bool("gateway.enriched", p != nil)))
	defer span.End()

	body, err := h.transformer.Rewrite(doc.Body, p, h.canonicalURL(r))
	switch {
	case errors.Is(err, render.ErrHeadNotFound):
		res.Decision = DecisionSkipped
		telemetry.ObserveRewrite("skipped")
	case err != nil:
		// Rewrite only fails on a missing head today; treat anything else the
		// same way.
		h.logger.Warn("rewrite failed", zap.Error(err))
		res.Decision = DecisionSkipped
		body = doc.Body
		telemetry.ObserveRewrite("error")
	case p != nil:
		telemetry.ObserveRewrite("enriched")
	default:
		telemetry.ObserveRewrite("visibility-only")
	}

	res.Body = body
	res.Header = policy.Build(res.Classification, res.Route)
	res.Header.Set("ETag", sha256.ETag(body))
	res.Header.Set("Content-Length", strconv.Itoa(len(body)))
	span.SetAttributes(attribute.String("gateway.decision", string(res.Decision)))
}

func (h *Handler) fetchProduct(ctx context.Context, id string) (product.Product, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "gateway.product",
		trace.WithAttributes(attribute.String("product.id", id)))
	defer span.End()
	if h.productTO > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.productTO)
		defer cancel()
	}

	start := time.Now()
	p, err := h.products.Fetch(ctx, id)
	cause := ""
	if err != nil {
		cause = string(product.CauseOf(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, cause)
		h.logger.Warn("product fetch failed",
			zap.String("product_id", id),
			zap.String("cause", cause),
			zap.Error(err),
		)
	}
	telemetry.ObserveDependency(telemetry.DependencyProduct, cause, time.Since(start))
	return p, err
}

func (h *Handler) fetchOrigin(ctx context.Context, r *http.Request) (origin.Document, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "gateway.origin",
		trace.WithAttributes(attribute.String("http.path", r.URL.Path)))
	defer span.End()
	if h.originTO > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.originTO)
		defer cancel()
	}

	start := time.Now()
	doc, err := h.origin.Fetch(ctx, r)
	cause := ""
	if err != nil {
		cause = string(origin.CauseOf(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, cause)
		h.logger.Warn("origin fetch failed",
			zap.String("path", r.URL.Path),
			zap.String("cause", cause),
			zap.Error(err),
		)
	}
	telemetry.ObserveDependency(telemetry.DependencyOrigin, cause, time.Since(start))
	return doc, err
}

// canonicalURL is the public address of the page, without query or fragment.
func (h *Handler) canonicalURL(r *http.Request) string {
	base := h.canonicalBase
	if base == "" {
		if r.Host == "" {
			return ""
		}
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
			scheme = proto
		}
		base = scheme + "://" + r.Host + "/"
	}
	ref := "./" + strings.TrimPrefix(r.URL.EscapedPath(), "/")
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	u, err := urlParser.ParseRef(base, ref)
	if err != nil {
		h.logger.Debug("canonical url", zap.String("base", base), zap.Error(err))
		return ""
	}
	return u.Href(true)
}

func (h *Handler) finish(r *http.Request, res Result, elapsed time.Duration) {
	telemetry.ObserveRequest(string(res.Classification.Category), string(res.Route.Kind), string(res.Decision))

	level := zap.DebugLevel
	if res.Decision != DecisionPassthrough {
		level = zap.InfoLevel
	}
	h.logger.Log(level, "gateway decision",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("category", string(res.Classification.Category)),
		zap.String("crawler", res.Classification.Crawler),
		zap.String("route", string(res.Route.Kind)),
		zap.String("product_id", res.Route.ProductID),
		zap.String("decision", string(res.Decision)),
		zap.Duration("duration", elapsed),
	)

	switch res.Decision {
	case DecisionRewritten, DecisionDegraded, DecisionForceVisible:
		h.emitter.Emit(events.RenderEvent{
			ProductID: res.Route.ProductID,
			Path:      r.URL.Path,
			Category:  string(res.Classification.Category),
			Crawler:   res.Classification.Crawler,
			Decision:  string(res.Decision),
			Enriched:  res.Decision == DecisionRewritten,
		})
	}
}
