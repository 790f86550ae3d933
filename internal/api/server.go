// Package api serves bundle and save inspection over HTTP, plus a small
// save-slot store.
package api

import (
	"time"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/ififf/internal/logger"
	"github.com/samcharles93/ififf/internal/storage"
	"github.com/samcharles93/ififf/pkg/babel"
	"github.com/samcharles93/ififf/pkg/blorb"
)

// DefaultMaxUpload bounds request bodies when Config.MaxUpload is zero.
const DefaultMaxUpload = 64 << 20

type Config struct {
	Logger    logger.Logger
	MaxUpload int64
	Extractor blorb.MetadataExtractor
}

type Server struct {
	store     storage.SlotStore
	log       logger.Logger
	extractor blorb.MetadataExtractor
	clock     func() time.Time
	maxUpload int64
}

func NewServer(store storage.SlotStore, cfg Config) *Server {
	if store == nil {
		store = storage.NewMemoryStore()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Discard()
	}
	if cfg.MaxUpload <= 0 {
		cfg.MaxUpload = DefaultMaxUpload
	}
	if cfg.Extractor == nil {
		cfg.Extractor = babel.Extractor{}
	}
	return &Server{
		store:     store,
		log:       cfg.Logger,
		extractor: cfg.Extractor,
		clock:     time.Now,
		maxUpload: cfg.MaxUpload,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.JSONSerializer = jsonSerializer{}

	e.GET("/v1/health", s.handleHealth)

	// Container inspection
	e.POST("/v1/chunks/tree", s.handleChunkTree)
	e.POST("/v1/bundles/inspect", s.handleInspectBundle)
	e.POST("/v1/bundles/verify", s.handleVerifyBundle)
	e.POST("/v1/saves/inspect", s.handleInspectSave)

	// Save slots
	e.POST("/v1/slots", s.handleCreateSlot)
	e.GET("/v1/slots", s.handleListSlots)
	e.GET("/v1/slots/:id", s.handleGetSlot)
	e.GET("/v1/slots/:id/data", s.handleSlotData)
	e.DELETE("/v1/slots/:id", s.handleDeleteSlot)
}
