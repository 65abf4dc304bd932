package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/finmcp/gateway/pkg/authserver"
	"github.com/finmcp/gateway/pkg/clientmeta"
	"github.com/finmcp/gateway/pkg/config"
	"github.com/finmcp/gateway/pkg/dispatcher"
	"github.com/finmcp/gateway/pkg/identity"
	"github.com/finmcp/gateway/pkg/logger"
	"github.com/finmcp/gateway/pkg/middleware"
	"github.com/finmcp/gateway/pkg/store"
	"github.com/finmcp/gateway/pkg/tokencodec"
	"github.com/finmcp/gateway/pkg/tools"
	"github.com/finmcp/gateway/pkg/upstream"
	"github.com/mark3labs/mcp-go/server"
)

const gatewayVersion = "0.1.0"

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the gateway HTTP server",
		RunE:  serveCmdFunc,
	}
}

func serveCmdFunc(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Initialize(cfg.LogLevel)
	defer logger.Sync()

	st, err := buildStore(cfg)
	if err != nil {
		return fmt.Errorf("build store: %w", err)
	}

	codec := tokencodec.New(cfg.JWTSecret)
	resolver := clientmeta.New(clientmeta.Config{
		HTTPTimeout: cfg.ClientMetaHTTPTimeout,
		MaxBytes:    cfg.ClientMetaMaxBytes,
		DefaultTTL:  cfg.ClientMetaDefaultTTL,
		MinTTL:      cfg.ClientMetaMinTTL,
		MaxTTL:      cfg.ClientMetaMaxTTL,
	})
	identityClient := identity.New(cfg.IdentityVerifyURL)

	as := authserver.New(authserver.Config{
		Issuer:              cfg.ServerURL,
		OAuthMountPath:      cfg.OAuthResourcePath,
		DefaultScope:        cfg.DefaultScope,
		AccessTokenLifespan: cfg.AccessTokenExpires,
		AuthCodeLifespan:    cfg.AuthCodeExpires,
		SessionSecret:       cfg.SessionSecret,
	}, st, codec, resolver, identityClient)

	sink := upstream.New(cfg.UpstreamAPIBaseURL, cfg.UpstreamEnvCredential)

	d := dispatcher.New()
	d.RegisterAuthServer(as.Register)

	d.Mount(dispatcher.Mount{
		Prefix:     cfg.LegacyMountPath,
		Inner:      newToolServer("finmcp-gateway-legacy", sink),
		Middleware: middleware.Legacy(),
	})

	d.Mount(dispatcher.Mount{
		Prefix: cfg.OAuthResourcePath,
		Inner:  newToolServer("finmcp-gateway-oauth", sink),
		Middleware: middleware.Protected(middleware.ProtectedConfig{
			Codec:                codec,
			Store:                st,
			ExpectedAudience:     cfg.ServerURL + cfg.OAuthResourcePath,
			ResourceMetadataURL:  cfg.ServerURL + "/.well-known/oauth-protected-resource" + cfg.OAuthResourcePath,
			Realm:                cfg.ServerURL,
			DefaultScope:         cfg.DefaultScope,
		}),
	})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := d.Start(ctx); err != nil {
		return fmt.Errorf("start dispatcher: %w", err)
	}

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           d.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infow("gateway listening", "addr", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorw("gateway server error", "error", err)
			cancel()
		}
	}()

	<-sigChan
	logger.Info("shutting down gateway")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return d.Stop(shutdownCtx)
}

// buildStore wires the Store backend stack per the configured persistence
// and encryption settings: in-memory by default, optionally durable on
// disk, optionally encrypted at rest.
func buildStore(cfg *config.Config) (store.Store, error) {
	var st store.Store
	if cfg.TokenStorageDir != "" {
		disk, err := store.NewDiskStore(cfg.TokenStorageDir)
		if err != nil {
			return nil, err
		}
		st = disk
	} else {
		st = store.NewMemoryStore()
	}

	if cfg.StorageEncryptionKey != "" {
		encrypted, err := store.NewEncryptedStore(st, cfg.StorageEncryptionKey)
		if err != nil {
			return nil, err
		}
		st = encrypted
	}

	return st, nil
}

// newToolServer builds an independent tool-protocol server instance so the
// OAuth and legacy mounts never share audit or session state.
func newToolServer(name string, sink *upstream.Sink) http.Handler {
	mcpServer := server.NewMCPServer(name, gatewayVersion,
		server.WithToolCapabilities(false),
		server.WithLogging(),
	)
	tools.Register(mcpServer, sink)

	return server.NewStreamableHTTPServer(
		mcpServer,
		server.WithEndpointPath("/"),
		server.WithHTTPContextFunc(func(_ context.Context, r *http.Request) context.Context {
			return r.Context()
		}),
	)
}
