package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/engine"
	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/mw"
	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/region"
	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	engine  *engine.Engine
	store   store.Store
	catalog *region.Catalog
	webpush *webpush.Options

	// responses is set by NewRouter; decisions purge the device's cached reads.
	responses *mw.ResponseCache
}

// NewHandler creates a new API handler.
func NewHandler(e *engine.Engine, s store.Store, catalog *region.Catalog, webpushOptions *webpush.Options) *Handler {
	if catalog == nil {
		catalog = region.NewCatalog(nil)
	}
	return &Handler{
		engine:  e,
		store:   s,
		catalog: catalog,
		webpush: webpushOptions,
	}
}
