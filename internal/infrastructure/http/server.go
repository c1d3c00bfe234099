package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
	"github.com/mrops-br/products-rbac-api/internal/domain"
	"github.com/mrops-br/products-rbac-api/internal/infrastructure/config"
	"github.com/mrops-br/products-rbac-api/internal/infrastructure/http/handler"
	"github.com/mrops-br/products-rbac-api/internal/infrastructure/http/middleware"
	"github.com/mrops-br/products-rbac-api/internal/infrastructure/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
)

// ProductsPath is the default mount point of the product routes. The
// operations are defined relative to it, so PRODUCTS_BASE_PATH=/ serves them
// at the root.
const ProductsPath = "/api/products"

// Server represents the HTTP server
type Server struct {
	router    *chi.Mux
	handler   *handler.ProductHandler
	tokenAuth *jwtauth.JWTAuth
	logger    *slog.Logger
	telemetry *telemetry.Telemetry
	basePath  string
	srv       *http.Server
}

// NewServer creates a new HTTP server
func NewServer(
	cfg *config.ServerConfig,
	handler *handler.ProductHandler,
	tokenAuth *jwtauth.JWTAuth,
	telem *telemetry.Telemetry,
) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		handler:   handler,
		tokenAuth: tokenAuth,
		logger:    telem.Logger,
		telemetry: telem,
		basePath:  cfg.BasePath,
	}
	if s.basePath == "" {
		s.basePath = ProductsPath
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.srv = &http.Server{
		Addr:              cfg.Address(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// setupMiddleware configures the middleware chain
func (s *Server) setupMiddleware() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(middleware.StructuredLogger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	meter := s.telemetry.MeterProvider.Meter("products-api")
	s.router.Use(middleware.ActiveRequestsMiddleware(meter))
	s.router.Use(middleware.DurationMillisecondsMiddleware(meter))
}

// allow builds the inline chain for a product route
func (s *Server) allow(r chi.Router, action domain.Action) chi.Router {
	return r.With(
		middleware.HTTPRouteContext(),
		middleware.RequireAction(action, s.logger),
	)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.Route(s.basePath, func(r chi.Router) {
		r.Use(middleware.Authenticate(s.tokenAuth, s.logger))

		s.allow(r, domain.ActionCreate).Post("/", s.handler.CreateProduct)
		s.allow(r, domain.ActionList).Get("/", s.handler.ListProducts)
		s.allow(r, domain.ActionUpdate).Put("/{id}", s.handler.UpdateProduct)
		s.allow(r, domain.ActionDelete).Delete("/{id}", s.handler.DeleteProduct)
	})

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.PlainText(w, r, "OK")
	})

	s.router.Method(http.MethodGet, "/metrics", s.telemetry.MetricsHandler())
}

// Handler returns the router wrapped with otelhttp for HTTP spans and the
// standard http.server.* metrics.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, "http-server",
		otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
			return fmt.Sprintf("%s %s", r.Method, r.URL.Path)
		}),
		otelhttp.WithTracerProvider(s.telemetry.TracerProvider),
		otelhttp.WithMeterProvider(s.telemetry.MeterProvider),
		otelhttp.WithMetricAttributesFn(func(r *http.Request) []attribute.KeyValue {
			return []attribute.KeyValue{
				attribute.String("http.route", middleware.RoutePattern(r)),
			}
		}),
	)
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server",
		slog.String("address", s.srv.Addr),
	)

	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
