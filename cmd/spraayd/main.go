// Command spraayd serves the quote-and-compose engine over HTTP and MCP. It
// loads the static configuration once at startup, dials the read-only RPC
// endpoint and exposes the engine through the request layer; payment gating
// and transaction submission are the surrounding infrastructure's concern.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/plagtech/spraay-x402-gateway"
	"github.com/plagtech/spraay-x402-gateway/compose"
	"github.com/plagtech/spraay-x402-gateway/evm"
	"github.com/plagtech/spraay-x402-gateway/httpapi"
	ginapi "github.com/plagtech/spraay-x402-gateway/httpapi/gin"
	mcpapi "github.com/plagtech/spraay-x402-gateway/mcp"
	"github.com/plagtech/spraay-x402-gateway/quote"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config (compiled-in Base mainnet defaults if empty)")
	listen := flag.String("listen", ":8080", "HTTP listen address")
	rpcURL := flag.String("rpc", "", "RPC endpoint override")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := spraay.LoadConfig(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *rpcURL != "" {
		cfg.RPCURL = *rpcURL
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	caller, err := evm.Dial(ctx, cfg.RPCURL)
	cancel()
	if err != nil {
		logger.Error("failed to dial rpc endpoint", "url", cfg.RPCURL, "error", err)
		os.Exit(1)
	}
	defer caller.Close()

	registry := spraay.NewRegistry(cfg)
	router := quote.NewRouter(caller, cfg, logger)
	composer := compose.NewComposer(registry, cfg)
	handler := httpapi.NewHandler(registry, router, composer, logger)
	mcpServer := mcpapi.NewServer("spraay", "1.0.0", registry, router, composer)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	ginapi.Mount(r, handler)
	r.Any("/mcp", gin.WrapH(mcpServer.Handler()))
	r.Any("/mcp/*path", gin.WrapH(mcpServer.Handler()))

	server := &http.Server{Addr: *listen, Handler: r}
	go func() {
		logger.Info("listening", "addr", *listen, "chainId", cfg.ChainID)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
}
