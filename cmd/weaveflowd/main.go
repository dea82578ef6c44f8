// Command weaveflowd runs the Control API process: it loads
// configuration, wires the engine components, and serves HTTP until
// told to shut down.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/weaveflow/weaveflow/engine/configstore"
	"github.com/weaveflow/weaveflow/engine/content"
	"github.com/weaveflow/weaveflow/engine/llmclient"
	"github.com/weaveflow/weaveflow/engine/scheduler"
	"github.com/weaveflow/weaveflow/engine/step"
	"github.com/weaveflow/weaveflow/engine/task"
	"github.com/weaveflow/weaveflow/engine/workflow"
	"github.com/weaveflow/weaveflow/pkg/config"
	"github.com/weaveflow/weaveflow/pkg/logger"
	"github.com/weaveflow/weaveflow/server"
	"github.com/weaveflow/weaveflow/server/middleware"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weaveflowd",
		Short: "Runs the batch code-transformation orchestration Control API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
	cmd.AddCommand(newServeCmd())
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the Control API HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.Init(&logger.Config{
		Level:      logger.LogLevel(cfg.Runtime.LogLevel),
		Output:     os.Stdout,
		JSON:       cfg.Runtime.LogJSON,
		TimeFormat: "15:04:05",
	})
	log := logger.GetDefault()

	contentStore := content.New()
	configStore := configstore.New(cfg.ConfigStore.Dir)

	restyClient := resty.New().SetTimeout(cfg.LLM.RequestTimeout)
	httpClient := &http.Client{Timeout: cfg.LLM.RequestTimeout}

	relayClient := llmclient.New(
		llmclient.NewRelayTransport(restyClient, cfg.LLM.ChatAPIURL, uuid.NewString()),
		cfg.LLM.ContinuationCeiling,
	)
	qianwenClient := llmclient.New(
		llmclient.NewStreamTransport(httpClient, cfg.LLM.OpenAIAPIBase, cfg.LLM.OpenAIAPIKey, cfg.LLM.OpenAIModel),
		cfg.LLM.ContinuationCeiling,
	)
	deepseekClient := llmclient.New(
		llmclient.NewStreamTransport(httpClient, cfg.LLM.OpenAIAPIBaseCoder, cfg.LLM.OpenAIAPIKeyCoder, cfg.LLM.OpenAIModelCoder),
		cfg.LLM.ContinuationCeiling,
	)

	executor := step.NewExecutor(contentStore, map[step.EndpointVariant]step.Completer{
		step.EndpointChatRelay:     relayClient,
		step.EndpointDirectQianwen: qianwenClient,
		step.EndpointDirectDeepSeek: deepseekClient,
	})

	workflowRunner := workflow.NewRunner(executor)
	taskRunner := task.NewRunner(workflowRunner, cfg.Scheduler.InterWorkflowPause)
	sched := scheduler.New(taskRunner, cfg.Scheduler.MaxConcurrentTasks, cfg.Scheduler.InterTaskPause)

	srv := server.New(contentStore, configStore, executor, relayClient, sched, middleware.CORSConfig{})

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: srv.Engine(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting control API", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	sched.StopAll()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Info("shutdown complete")
	return nil
}
