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

	"innerlog/internal/analysis"
	"innerlog/internal/api"
	"innerlog/internal/auth"
	"innerlog/internal/chat"
	"innerlog/internal/config"
	"innerlog/internal/journal"
	"innerlog/internal/llm"
	"innerlog/internal/scheduler"
	"innerlog/internal/storage"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()

	var tokenRepo auth.Repository
	if cfg.TokensFilePath != "" {
		repo, err := auth.NewFileRepository(cfg.TokensFilePath)
		if err != nil {
			log.Printf("failed to init token repo: %v", err)
		} else {
			tokenRepo = repo
		}
	}
	authSvc, err := auth.NewWithRepo(tokenRepo, cfg.APITokens)
	if err != nil {
		log.Fatalf("failed to init auth: %v", err)
	}

	store, err := storage.NewSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open storage: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("failed to close storage: %v", err)
		}
	}()

	ruleAnalyzer := analysis.NewRuleBased(analysis.DefaultLexicon())
	ruleGenerator := chat.NewRuleBased()

	var analyzer analysis.Analyzer = ruleAnalyzer
	var generator chat.Generator = ruleGenerator
	if cfg.OpenAIAPIKey != "" {
		client := llm.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.LLMTimeout)
		analyzer = analysis.NewModelBacked(client, ruleAnalyzer)
		generator = chat.NewModelBacked(client, ruleGenerator)
		log.Printf("model-backed analysis and responses enabled, model=%s", cfg.OpenAIModel)
	} else {
		log.Println("no OPENAI_API_KEY set, running rule-based only")
	}

	journalSvc := journal.NewService(store, analyzer)
	engine := chat.NewEngine(generator, store, cfg.SessionWindow)

	sched := scheduler.New()
	sched.SetSweepFunction(func() int { return engine.EvictEnded(cfg.SessionTTL) })
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := api.NewApp(journalSvc, engine, authSvc)
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: app.Router(),
	}

	go func() {
		log.Printf("listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown failed: %v", err)
	}
}
