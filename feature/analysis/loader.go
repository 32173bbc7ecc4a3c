package analysis

import (
	"spring-change/core/storage"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates a new analysis feature.
func NewFeature(cfg Config, logger *zap.Logger, db *gorm.DB, archive *storage.Archive) *Feature {
	svc := NewService(cfg, logger, db, archive)
	return &Feature{service: svc, handler: NewHandler(svc)}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "analysis"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}

// Service exposes the workflow service.
func (f *Feature) Service() *Service {
	return f.service
}
