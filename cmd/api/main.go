package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/calm-companion/backend/internal/config"
	"github.com/zhouzirui/calm-companion/backend/internal/handler"
	"github.com/zhouzirui/calm-companion/backend/internal/model/script"
	"github.com/zhouzirui/calm-companion/backend/internal/service/chat"
	"github.com/zhouzirui/calm-companion/backend/internal/service/completion"
	"github.com/zhouzirui/calm-companion/backend/internal/service/responder"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	catalogue, err := loadScript(cfg.Responder.ScriptPath)
	if err != nil {
		log.Fatalf("failed to load response catalog: %v", err)
	}

	completionSvc, err := newCompletionService(ctx, cfg.AI, catalogue)
	if err != nil {
		log.Fatalf("failed to initialize completion service: %v", err)
	}

	routerCfg := cfg.Responder.RouterConfig()
	chatService, err := chat.NewService(chat.Config{
		NewRouter: func() (*responder.Router, error) {
			return responder.NewRouter(catalogue, routerCfg)
		},
		Pacer:      responder.NewPacer(cfg.Responder.PacerConfig()),
		Completion: completionSvc,
	})
	if err != nil {
		log.Fatalf("failed to initialize chat service: %v", err)
	}

	router := handler.NewRouter(chatService, catalogue, cfg.Server.AllowedOrigins)

	startServer(ctx, cfg.Server, router)
}

func loadScript(path string) (*script.Script, error) {
	if path == "" {
		return script.Seed(), nil
	}
	s, err := script.Load(path)
	if err != nil {
		return nil, err
	}
	log.Printf("loaded response catalog from %s", path)
	return s, nil
}

// newCompletionService wires the remote model. Missing credentials or a model
// that fails to initialise leave the service in fallback-only mode.
func newCompletionService(ctx context.Context, aiCfg config.AIConfig, catalogue *script.Script) (*completion.Service, error) {
	fallback, err := completion.NewFallbackPool(catalogue.Fallback, nil)
	if err != nil {
		return nil, err
	}

	if !aiCfg.Enabled() {
		log.Println("远程模型凭证未配置，仅使用兜底话术")
		return completion.NewService(nil, fallback), nil
	}

	chatModel, err := aiCfg.NewChatModel(ctx)
	if err != nil {
		log.Printf("warning: failed to initialize %s chat model: %v", aiCfg.Provider, err)
		log.Println("continuing with fallback messages only")
		return completion.NewService(nil, fallback), nil
	}

	client, err := completion.NewClient(ctx, chatModel, completion.Options{
		SystemPrompt: completion.DefaultPromptTemplate().BuildSystemPrompt(),
		Timeout:      aiCfg.Timeout,
		HistoryLimit: aiCfg.HistoryLimit,
	})
	if err != nil {
		log.Printf("warning: failed to compile completion chain: %v", err)
		return completion.NewService(nil, fallback), nil
	}

	log.Printf("completion service initialized provider=%s model=%s", aiCfg.Provider, aiCfg.Model)
	return completion.NewService(client, fallback), nil
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Calm Companion backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
