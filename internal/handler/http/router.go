package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/catalog-service/pkg/health"
	"github.com/utafrali/catalog-service/pkg/middleware"
)

// RouterConfig holds the router-level settings.
type RouterConfig struct {
	ServiceName    string
	CORS           middleware.CORSConfig
	TracingEnabled bool
	PprofCIDRs     []string

	// UploadDir is the local directory served under UploadBasePath.
	UploadDir      string
	UploadBasePath string
}

// NewRouter builds the HTTP routing tree with the full middleware chain.
func NewRouter(
	products *ProductHandler,
	types *ProductTypeHandler,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	if cfg.TracingEnabled {
		r.Use(middleware.Tracing(cfg.ServiceName))
	}

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	if cfg.UploadDir != "" {
		basePath := strings.TrimSuffix(cfg.UploadBasePath, "/")
		if basePath == "" {
			basePath = "/uploads"
		}
		fileServer := http.StripPrefix(basePath+"/", http.FileServer(http.Dir(cfg.UploadDir)))
		r.With(middleware.CacheControl(86400)).Handle(basePath+"/*", fileServer)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Route("/products", func(r chi.Router) {
			r.Post("/", products.CreateProduct)
			r.Get("/", products.ListProducts)
			r.Get("/{id}", products.GetProduct)
			r.Put("/{id}", products.UpdateProduct)
			r.Delete("/{id}", products.DeleteProduct)
		})

		r.Route("/product-types", func(r chi.Router) {
			r.Post("/", types.CreateProductType)
			r.Get("/", types.ListProductTypes)
			r.Get("/{id}", types.GetProductType)
			r.Put("/{id}", types.UpdateProductType)
			r.Delete("/{id}", types.DeleteProductType)
		})
	})

	return r
}
