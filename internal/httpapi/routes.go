package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jodyrakow/triviavanguard/internal/relay"
	"github.com/jodyrakow/triviavanguard/internal/ws"
)

func SetupRoutes(h *relay.Hub, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", Healthz)
	r.Get("/channels/{name}/occupancy", ChannelOccupancy(h))
	r.Get("/ws", ws.Handler(h, log))
	return r
}
