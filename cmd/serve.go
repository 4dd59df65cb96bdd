package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Shivanand-hulikatti/campus-events/internal/config"
	"github.com/Shivanand-hulikatti/campus-events/internal/handler"
	"github.com/Shivanand-hulikatti/campus-events/internal/model"
	"github.com/Shivanand-hulikatti/campus-events/internal/notify"
	"github.com/Shivanand-hulikatti/campus-events/internal/service"
	"github.com/Shivanand-hulikatti/campus-events/internal/telemetry"
	"github.com/Shivanand-hulikatti/campus-events/internal/userdir"
)

var demo bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (default command)",
	RunE:  runServe,
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, serveCmd} {
		c.Flags().BoolVar(&demo, "demo", false, "with STORE=memory, seed demo users and log their tokens")
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := cfg.RequireSecret(); err != nil {
		return err
	}
	ctx := cmd.Context()

	// ── 1. Tracing ────────────────────────────────────────────────────────
	shutdownTracing, err := telemetry.Setup(ctx, cfg.ServiceName, cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	// ── 2. Storage ────────────────────────────────────────────────────────
	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	// ── 3. Wire up layers ────────────────────────────────────────────────
	notifier := notify.NewAsync(notify.NewInbox(st.notifications), cfg.NotifyQueueSize)
	directory := userdir.NewCached(st.users, cfg.UserCacheTTL)
	manager := service.NewManager(st.events, directory, st.associations, notifier,
		service.WithMaxAttempts(cfg.MaxAttempts))
	auth := handler.NewAuthenticator(cfg.JWTSecret, cfg.TokenTTL)
	h := handler.New(manager, service.NewEventService(st.events, st.associations), service.NewInboxService(st.notifications))

	if demo {
		if err := seedDemo(ctx, cfg, st, auth); err != nil {
			return err
		}
	}

	// ── 4. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      h.Routes(auth),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("✓ Server listening on http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	log.Println("shutting down server…")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
	if err := notifier.Close(shutdownCtx); err != nil {
		log.Printf("notification queue not drained: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Printf("tracer flush failed: %v", err)
	}
	log.Println("server stopped")
	return nil
}

// seedDemo creates an organizer and a student in the memory store and logs
// bearer tokens for both.
func seedDemo(ctx context.Context, cfg config.Config, st *stores, auth *handler.Authenticator) error {
	if cfg.Store != config.StoreMemory {
		return errors.New("--demo requires STORE=memory")
	}
	users := service.NewUserService(st.users)
	for _, seed := range []struct {
		name, email string
		role        model.Role
	}{
		{"Demo Organizer", "organizer@example.edu", model.RoleCommunityManager},
		{"Demo Student", "student@example.edu", model.RoleUser},
	} {
		u, err := users.CreateUser(ctx, seed.name, seed.email, seed.role)
		if err != nil {
			return fmt.Errorf("seed %s: %w", seed.email, err)
		}
		tok, err := auth.IssueToken(model.Actor{ID: u.ID, Name: u.Name, Role: u.Role})
		if err != nil {
			return err
		}
		log.Printf("demo: user=%s role=%s token=%s", u.Email, u.Role, tok)
	}
	return nil
}
