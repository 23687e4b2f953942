// Package app wires the configured components together and owns the server
// lifecycle: open storage, build the handler stack, serve, drain, close.
package app

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"msgdrop/internal/janitor"
	"msgdrop/pkg/api"
	"msgdrop/pkg/banner"
	"msgdrop/pkg/blob"
	"msgdrop/pkg/config"
	"msgdrop/pkg/hub"
	"msgdrop/pkg/logger"
	"msgdrop/pkg/notify"
	"msgdrop/pkg/ratelimit"
	"msgdrop/pkg/session"
	"msgdrop/pkg/store"
	"msgdrop/pkg/streak"
	"msgdrop/pkg/validation"
	"msgdrop/pkg/ws"
)

// App encapsulates the server components and lifecycle.
type App struct {
	eff     config.EffectiveConfigResult
	version string

	auth     *session.Authenticator
	hub      *hub.Hub
	limiter  *ratelimit.Limiter
	blobs    *blob.Store
	notifier *notify.Notifier
	streak   *streak.Calculator

	rest *api.Server
	wsh  *ws.Handler

	srv *http.Server
}

// New initializes resources that do not require a running context: the
// message store, blob store, session authenticator and the in-memory
// components. Call Run to start serving and block until shutdown.
func New(eff config.EffectiveConfigResult, version string) (*App, error) {
	_ = godotenv.Load(".env")

	if err := validateConfig(eff); err != nil {
		return nil, err
	}
	cfg := eff.Config

	if err := store.Open(eff.DBPath); err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", eff.DBPath, err)
	}

	blobDir := cfg.Server.BlobDir
	if blobDir == "" {
		blobDir = eff.DBPath + "/blobs"
	}
	blobs, err := blob.Open(blobDir, int64(cfg.Server.MaxUploadSize))
	if err != nil {
		return nil, fmt.Errorf("failed to open blob dir %s: %w", blobDir, err)
	}

	secret, err := loadSessionSecret(cfg)
	if err != nil {
		return nil, err
	}
	auth := session.New(secret, cfg.Security.Session.TTL.D())

	validation.SetRules(validation.Rules{
		MaxTextLen:   cfg.Validation.MaxTextLen,
		MaxAuthorLen: cfg.Validation.MaxAuthorLen,
	})

	limiter := ratelimit.New()
	rooms := hub.New()

	var sink notify.Sink = notify.LogSink{}
	if cfg.Notify.Enabled && cfg.Notify.WebhookURL != "" {
		sink = notify.NewWebhookSink(cfg.Notify.WebhookURL, cfg.Notify.Token, cfg.Notify.Numbers)
	}
	notifier := notify.NewNotifier(sink, cfg.Notify.Debounce.D())

	loc, err := time.LoadLocation(cfg.Streak.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid streak timezone %q: %w", cfg.Streak.Timezone, err)
	}
	streaks := streak.New(loc, cfg.Streak.Lookback)

	a := &App{
		eff:      eff,
		version:  version,
		auth:     auth,
		hub:      rooms,
		limiter:  limiter,
		blobs:    blobs,
		notifier: notifier,
		streak:   streaks,
	}
	a.rest = &api.Server{
		Auth:     auth,
		Hub:      rooms,
		Limiter:  limiter,
		Limits:   classLimits(cfg),
		Blobs:    blobs,
		Notifier: notifier,
		Streak:   streaks,

		UnlockCode:     cfg.Security.Unlock.Code,
		UnlockCodeHash: cfg.Security.Unlock.CodeHash,
		CookieDomain:   cfg.Security.CookieDomain,
		SessionTTL:     cfg.Security.Session.TTL.D(),
	}
	a.wsh = ws.NewHandler(auth, rooms, limiter, ws.WriteLimit{
		Max:    cfg.Security.Limits.Write.Max,
		Window: cfg.Security.Limits.Write.Window.D(),
	}, notifier)
	return a, nil
}

// Run starts the janitor and the HTTP server, then blocks until ctx is
// canceled or a fatal server error occurs. Storage is closed on the way out.
func (a *App) Run(ctx context.Context) error {
	banner.Print(a.eff, a.version)

	stopJanitor, err := janitor.Start(ctx, a.eff.Config.Janitor, janitor.Deps{
		Limiter:  a.limiter,
		Debounce: a.notifier.Debouncer(),
		Blobs:    a.blobs,
	})
	if err != nil {
		return err
	}
	defer stopJanitor()

	errCh := a.startHTTP()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Error("http_server_failed", "error", err)
			a.closeStores()
			return err
		}
	}

	a.stopHTTP()
	a.closeStores()
	return nil
}

func (a *App) closeStores() {
	if err := store.Close(); err != nil {
		logger.Error("store_close_failed", "error", err)
	}
}

// loadSessionSecret prefers an inline hex key; otherwise it loads (or
// creates) the key file so restarts keep issued tokens valid.
func loadSessionSecret(cfg *config.Config) ([]byte, error) {
	if h := cfg.Security.Session.SignKeyHex; h != "" {
		b, err := hex.DecodeString(h)
		if err != nil {
			return nil, fmt.Errorf("invalid sign_key_hex: %w", err)
		}
		return b, nil
	}
	b, err := session.LoadOrCreateSecret(cfg.Security.Session.SignKeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load session key: %w", err)
	}
	return b, nil
}

func classLimits(cfg *config.Config) api.Limits {
	l := cfg.Security.Limits
	return api.Limits{
		Read:   api.Class{Max: l.Read.Max, Window: l.Read.Window.D()},
		Write:  api.Class{Max: l.Write.Max, Window: l.Write.Window.D()},
		React:  api.Class{Max: l.React.Max, Window: l.React.Window.D()},
		Unlock: api.Class{Max: l.Unlock.Max, Window: l.Unlock.Window.D()},
	}
}
