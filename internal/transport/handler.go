package transport

import (
	"context"
	"net/http"
	"time"

	"go-skin-inspector/internal/capture"
	"go-skin-inspector/internal/catalog"
	"go-skin-inspector/internal/config"
	"go-skin-inspector/internal/media"
	"go-skin-inspector/internal/service"
	"go-skin-inspector/internal/storage"
	"go-skin-inspector/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ChatService answers free-text questions
type ChatService interface {
	SendMessage(ctx context.Context, text string) models.ChatResponse
	Configured() bool
}

// Dependencies are the collaborators behind the HTTP API
type Dependencies struct {
	Config    *config.Config
	Catalog   *catalog.Catalog
	Registry  *service.Registry
	Diagnosis service.DiagnosisService
	Chat      ChatService
	// Resolver turns url references into files. Nil disables them.
	Resolver *storage.Resolver
	Hub      *Hub
	Gatherer prometheus.Gatherer
}

type handler struct {
	cfg       *config.Config
	catalog   *catalog.Catalog
	registry  *service.Registry
	diagnosis service.DiagnosisService
	chat      ChatService
	resolver  *storage.Resolver
	upload    capture.UploadOptions
}

// NewHandler builds the gin engine serving the API
func NewHandler(deps Dependencies) http.Handler {
	cfg := deps.Config
	h := &handler{
		cfg:       cfg,
		catalog:   deps.Catalog,
		registry:  deps.Registry,
		diagnosis: deps.Diagnosis,
		chat:      deps.Chat,
		resolver:  deps.Resolver,
		upload: capture.UploadOptions{
			Normalize: media.NormalizeOptions{
				MaxDimension: cfg.UploadMaxDimension,
				MaxPixels:    cfg.UploadMaxPixels,
				Quality:      media.DefaultQuality,
			},
			MaxBytes: cfg.MaxRequestBodySize,
		},
	}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		requestLogger(),
		cors(),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/health", h.healthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	if deps.Hub != nil {
		r.GET("/ws", deps.Hub.ServeWS)
	}

	api := r.Group("/api/v1")

	conditions := api.Group("/conditions")
	conditions.GET("", h.listConditions)
	conditions.GET("/search", h.searchConditions)
	conditions.GET("/:id", h.getCondition)

	sessions := api.Group("/sessions")
	sessions.POST("", h.createSession)
	sessions.GET("/:id", h.getSession)
	sessions.DELETE("/:id", h.closeSession)
	sessions.POST("/:id/activate", h.cameraAction(activate))
	sessions.POST("/:id/deactivate", h.cameraAction(deactivate))
	sessions.POST("/:id/switch", h.cameraAction(switchDevice))
	sessions.POST("/:id/capture", h.cameraAction(captureStill))
	sessions.POST("/:id/accept", h.acceptImage)
	sessions.POST("/:id/retake", h.retake)
	sessions.POST("/:id/file", h.selectFile)
	sessions.GET("/:id/pending", h.pendingImage)
	sessions.GET("/:id/preview", h.previewFrame)
	sessions.POST("/:id/analyze", h.analyzeSession)

	api.POST("/analyze", h.analyzeImage)

	limiter := newIPRateLimiter(cfg.ChatRateLimit, cfg.ChatRateBurst)
	api.POST("/chat", rateLimit(limiter), h.sendChat)

	return r
}

// requestContext bounds blocking work by the configured request timeout.
func (h *handler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
}

func (h *handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "available",
		"version":         "1.0.0",
		"time":            time.Now().UTC().Format(time.RFC3339),
		"sessions":        h.registry.Len(),
		"chat_configured": h.chat.Configured(),
	})
}
