package container

import (
	"context"
	"fmt"
	"image"
	"net/http"
	"os"

	"go-skin-inspector/internal/analyzer"
	"go-skin-inspector/internal/catalog"
	"go-skin-inspector/internal/chat"
	"go-skin-inspector/internal/config"
	"go-skin-inspector/internal/device"
	"go-skin-inspector/internal/logger"
	"go-skin-inspector/internal/media"
	"go-skin-inspector/internal/observer"
	"go-skin-inspector/internal/service"
	"go-skin-inspector/internal/storage"
	"go-skin-inspector/internal/transport"
	"go-skin-inspector/pkg/validation"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

// Options select the optional parts of the dependency graph
type Options struct {
	// LocalFiles lets url references name files on this machine. Only the
	// CLI enables it.
	LocalFiles bool
	// Metrics registers the Prometheus collectors and the metrics observer.
	Metrics bool
}

// Container holds all application dependencies
type Container struct {
	config    *config.Config
	catalog   *catalog.Catalog
	resolver  *storage.Resolver
	registry  *service.Registry
	diagnosis service.DiagnosisService
	chat      *chat.Service
	hub       *transport.Hub
	handler   http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config, opts Options) (*Container, error) {
	logger.SetLevel(cfg.LogLevel)

	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))

	var metrics *prometheus.Registry
	if opts.Metrics {
		metrics = prometheus.NewRegistry()
		metrics.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m, err := observer.NewMetricsObserver(metrics)
		if err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		events.Subscribe(m)
	}

	cat := catalog.Default()

	feed, err := loadFeed(cfg.CameraFeedImage)
	if err != nil {
		return nil, err
	}
	camera := device.NewSyntheticCamera(device.SyntheticOptions{Feed: feed})

	resolver, err := newResolver(cfg, opts.LocalFiles)
	if err != nil {
		return nil, err
	}

	diag, err := analyzer.NewMockDiagnosis(cat, analyzer.DefaultOptions().WithLatency(cfg.AnalysisLatency))
	if err != nil {
		return nil, fmt.Errorf("failed to create analyzer: %w", err)
	}

	registry := service.NewRegistry(service.RegistryOptions{
		Devices:     camera,
		IdealWidth:  cfg.CameraWidth,
		IdealHeight: cfg.CameraHeight,
		SettleDelay: cfg.DeviceSettleDelay,
		Normalize: media.NormalizeOptions{
			MaxDimension: cfg.UploadMaxDimension,
			MaxPixels:    cfg.UploadMaxPixels,
			Quality:      media.DefaultQuality,
		},
		MaxFileBytes: cfg.MaxRequestBodySize,
		Inspector:    analyzer.NewPhotoInspector(validation.NewQualityValidator()),
		Events:       events,
		IdleTimeout:  cfg.SessionIdleTimeout,
	})

	chatService := chat.NewService(chat.Config{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		BaseURL: cfg.GeminiBaseURL,
		Timeout: cfg.ChatTimeout,
	}, events)
	if !chatService.Configured() {
		logger.Info("GEMINI_API_KEY is not set, chat will answer with a canned message")
	}

	hub := transport.NewHub()
	events.Subscribe(hub)

	diagnosis := service.NewDiagnosisService(registry, diag, events)

	c := &Container{
		config:    cfg,
		catalog:   cat,
		resolver:  resolver,
		registry:  registry,
		diagnosis: diagnosis,
		chat:      chatService,
		hub:       hub,
	}

	deps := transport.Dependencies{
		Config:    cfg,
		Catalog:   cat,
		Registry:  registry,
		Diagnosis: diagnosis,
		Chat:      chatService,
		Resolver:  resolver,
		Hub:       hub,
	}
	if metrics != nil {
		deps.Gatherer = metrics
	}
	c.handler = transport.NewHandler(deps)
	return c, nil
}

func newResolver(cfg *config.Config, localFiles bool) (*storage.Resolver, error) {
	opts := storage.ResolverOptions{
		HTTP: storage.NewHTTPImageFetcher(storage.HTTPFetcherOptions{Timeout: cfg.ImageFetchTimeout}),
	}
	if cfg.AzureEnabled() {
		az, err := storage.NewAzureBlobSource(cfg.AzureStorageAccount, cfg.AzureStorageKey, "")
		if err != nil {
			return nil, fmt.Errorf("failed to create azure blob source: %w", err)
		}
		opts.Azure = az
		logger.WithField("account", cfg.AzureStorageAccount).Info("Azure blob references enabled")
	}
	if localFiles {
		opts.Local = storage.LocalFileSource{}
	}
	return storage.NewResolver(opts), nil
}

// loadFeed decodes the still shown by the synthetic camera, if configured.
func loadFeed(path string) (image.Image, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read CAMERA_FEED_IMAGE: %w", err)
	}
	img, err := media.Normalize(data, media.NormalizeOptions{MaxDimension: 4096})
	if err != nil {
		return nil, fmt.Errorf("failed to load CAMERA_FEED_IMAGE: %w", err)
	}
	decoded, err := img.Decode()
	if err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{
		"path":   path,
		"width":  img.Width,
		"height": img.Height,
	}).Info("Camera feed image loaded")
	return decoded, nil
}

// Start runs the background workers until ctx is done: the WebSocket hub
// and the idle session reaper.
func (c *Container) Start(ctx context.Context) {
	go c.hub.Run(ctx)
	go c.registry.RunReaper(ctx, 0)
}

// Shutdown unmounts every session, releasing any camera still held.
func (c *Container) Shutdown() {
	c.registry.CloseAll()
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Catalog returns the condition catalog
func (c *Container) Catalog() *catalog.Catalog {
	return c.catalog
}

// Resolver returns the image reference resolver
func (c *Container) Resolver() *storage.Resolver {
	return c.resolver
}

// Diagnosis returns the diagnosis service
func (c *Container) Diagnosis() service.DiagnosisService {
	return c.diagnosis
}

// Chat returns the chat service
func (c *Container) Chat() *chat.Service {
	return c.chat
}

// Registry returns the session registry
func (c *Container) Registry() *service.Registry {
	return c.registry
}
