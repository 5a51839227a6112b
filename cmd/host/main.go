package main

import (
	"context"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/jodyrakow/triviavanguard/internal/backup"
	"github.com/jodyrakow/triviavanguard/internal/cache"
	"github.com/jodyrakow/triviavanguard/internal/channel"
	"github.com/jodyrakow/triviavanguard/internal/content"
	"github.com/jodyrakow/triviavanguard/internal/persist"
	"github.com/jodyrakow/triviavanguard/internal/show"
)

// The host binary wires one client of the sync core together: local
// backup, durable snapshot store, show state cache, debounced saver, and
// the relay channel for the selected show.
func main() {
	_ = godotenv.Load()

	logger, err := zap.NewDevelopment()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	showID := os.Getenv("SHOW_ID")
	relayURL := envOr("RELAY_URL", "ws://localhost:8080")
	snapshotDSN := os.Getenv("SNAPSHOT_DB_DSN")
	contentDSN := os.Getenv("CONTENT_DB_DSN")
	backupPath := envOr("BACKUP_PATH", "scorehost.db")
	if showID == "" || snapshotDSN == "" || contentDSN == "" {
		logger.Fatal("SHOW_ID, SNAPSHOT_DB_DSN, and CONTENT_DB_DSN are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := persist.OpenPostgres(snapshotDSN)
	if err != nil {
		logger.Fatal("snapshot store", zap.Error(err))
	}
	bk, err := backup.Open(backupPath, logger)
	if err != nil {
		logger.Fatal("local backup", zap.Error(err))
	}
	defer bk.Close()

	// The saver snapshots the cache at flush time; the cache triggers the
	// saver on every mutation. SourceFunc breaks the construction cycle.
	var c *cache.Cache
	saver := persist.NewSaver(store, persist.SourceFunc(func(id string) (show.State, bool) {
		return c.Snapshot(id)
	}), persist.DefaultWindow, logger)
	c = cache.New(ctx, saver, saver, bk, logger)
	defer c.Close()
	defer saver.Flush()

	loader, err := content.OpenPostgres(contentDSN)
	if err != nil {
		logger.Fatal("content source", zap.Error(err))
	}
	bundle, err := loader.LoadShow(ctx, showID)
	if err != nil {
		logger.Fatal("load show structure", zap.Error(err))
	}

	st := c.Select(showID, bundle.Defaults())
	logger.Info("show selected",
		zap.String("show", showID),
		zap.Int("teams", len(st.Teams)),
		zap.String("mode", string(st.ScoringMode)))

	transport := channel.NewWS(relayURL + "/ws?channel=" + url.QueryEscape("show:"+showID))
	conn := channel.Dial(ctx, transport, c, channel.Options{}, func(s channel.Status) {
		logger.Info("channel status", zap.String("status", string(s)))
	}, logger)
	defer conn.Close()

	// Keep-alive ping so the relay sees us; the room echoes it back to us
	// only, never to the other hosts.
	go func() {
		t := time.NewTicker(30 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				conn.Send(show.EvtPing, show.Payload{ShowID: showID})
			case <-ctx.Done():
				return
			}
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
