package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jodyrakow/triviavanguard/internal/relay"
)

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// ChannelOccupancy reports how many hosts are subscribed to a channel.
// Handy for the host UI's "other devices connected" indicator.
func ChannelOccupancy(h *relay.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if name == "" {
			http.Error(w, "missing channel name", http.StatusBadRequest)
			return
		}

		reply := make(chan *relay.Room, 1)
		h.Inbox() <- relay.GetRoom{Name: name, Reply: reply}
		room := <-reply

		count := 0
		if room != nil {
			occ := make(chan int, 1)
			room.Inbox() <- relay.Occupancy{Reply: occ}
			select {
			case count = <-occ:
			case <-time.After(time.Second):
				http.Error(w, "room unresponsive", http.StatusServiceUnavailable)
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			Channel   string `json:"channel"`
			Occupancy int    `json:"occupancy"`
		}{Channel: name, Occupancy: count})
	}
}
