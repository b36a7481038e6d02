// Command waiter runs the restaurant waiter either as an interactive
// terminal session or as an HTTP chat server.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"trattoria/internal/config"
	"trattoria/internal/menu"
	"trattoria/internal/metrics"
	"trattoria/internal/providers"
	"trattoria/internal/server"
	"trattoria/internal/waiter"
)

var (
	configFile   = flag.String("config", "", "Path to configuration file")
	menuFile     = flag.String("menu", "", "Path to menu JSON (overrides config)")
	providerType = flag.String("provider", "", "LLM provider: ollama, openai, azure, local")
	model        = flag.String("model", "", "Model or deployment name")
	baseURL      = flag.String("base-url", "", "Provider endpoint URL")
	serve        = flag.Bool("serve", false, "Run the HTTP chat server instead of the terminal session")
	port         = flag.Int("port", 0, "API server port")
	metricsPort  = flag.Int("metrics-port", 0, "Metrics server port")
	transcript   = flag.String("transcript", "", "Write the conversation transcript to this file on exit")
	guarded      = flag.Bool("guard", false, "Screen off-topic requests and replies with an extra classification call")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	applyFlags(&cfg)

	catalog, err := menu.LoadFile(cfg.MenuPath)
	if err != nil {
		log.Fatalf("Failed to load menu: %v", err)
	}

	llm, err := providers.New(providers.Options{
		Type:    cfg.Provider.Type,
		Model:   cfg.Provider.Model,
		BaseURL: cfg.Provider.BaseURL,
		APIKey:  cfg.Provider.APIKey,
	})
	if err != nil {
		log.Fatalf("Failed to initialize provider: %v", err)
	}
	log.Printf("Serving %s with provider %s", catalog.Restaurant, llm.Name())

	opts := waiter.Options{
		MaxTokens:   cfg.Generation.MaxTokens,
		Temperature: cfg.Generation.Temperature,
		Guarded:     cfg.Generation.Guard,
	}

	if *serve {
		runServer(cfg, catalog, llm, opts)
		return
	}
	runInteractive(catalog, llm, opts)
}

// applyFlags lets command-line flags override the configuration file.
func applyFlags(cfg *config.Config) {
	if *menuFile != "" {
		cfg.MenuPath = *menuFile
	}
	if *providerType != "" {
		cfg.Provider.Type = *providerType
	}
	if *model != "" {
		cfg.Provider.Model = *model
	}
	if *baseURL != "" {
		cfg.Provider.BaseURL = *baseURL
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *metricsPort != 0 {
		cfg.Server.MetricsPort = *metricsPort
	}
	if *guarded {
		cfg.Generation.Guard = true
	}
}

func runServer(cfg config.Config, catalog *menu.Catalog, llm providers.Provider, opts waiter.Options) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector := metrics.NewCollector()
	srv := server.New(catalog, llm, collector, opts, cfg.MenuPath)

	if cfg.Server.MetricsPort != 0 && cfg.Server.MetricsPort != cfg.Server.Port {
		go startMetricsServer(ctx, cfg.Server.MetricsPort, collector)
	}

	log.Printf("Starting chat server on port %d", cfg.Server.Port)
	if err := srv.Run(ctx, fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Server stopped")
}

func startMetricsServer(ctx context.Context, port int, collector *metrics.Collector) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/metrics", gin.WrapH(collector.Handler()))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	log.Printf("Starting metrics server on port %d", port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("Metrics server error: %v", err)
	}
}

func runInteractive(catalog *menu.Catalog, llm providers.Provider, opts waiter.Options) {
	ctx := context.Background()
	agent := waiter.New(llm, catalog, opts)

	fmt.Println(agent.Greeting(ctx))
	fmt.Println("\n(comandi: 'menu', 'ordine', 'reset', 'esci')")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}

		res, err := agent.HandleTurn(ctx, scanner.Text())
		if err != nil {
			log.Printf("generation failed: %v", err)
		}
		if res.Reply != "" {
			fmt.Println("\n" + res.Reply)
		}
		if res.Quit {
			break
		}
	}

	if !agent.Ledger().IsEmpty() {
		agent.Ledger().SendToKitchen()
		fmt.Println("\n" + agent.Ledger().KitchenSummary())
	}
	if *transcript != "" {
		saveTranscript(agent, *transcript)
	}
}

func saveTranscript(agent *waiter.Agent, path string) {
	data, err := agent.TranscriptJSON()
	if err != nil {
		log.Printf("Failed to serialize transcript: %v", err)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Printf("Failed to write transcript: %v", err)
		return
	}
	log.Printf("Transcript saved to %s", path)
}
