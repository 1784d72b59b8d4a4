package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/zinc-sig/packhost/cmd/config"
	"github.com/zinc-sig/packhost/cmd/helpers"
	"github.com/zinc-sig/packhost/internal/host"
	"github.com/zinc-sig/packhost/internal/host/wshub"
	"github.com/zinc-sig/packhost/internal/hosting"
	"github.com/zinc-sig/packhost/internal/messages"
	"github.com/zinc-sig/packhost/internal/metrics"
	"github.com/zinc-sig/packhost/internal/publish"
	"github.com/zinc-sig/packhost/internal/watch"
	"github.com/zinc-sig/packhost/internal/webhook"
)

const shutdownTimeout = 10 * time.Second

var (
	serveOptionFlags config.UploadOptionFlags
	serveWebhook     config.WebhookConfig
	serveListen      string
	serveWatch       bool
)

var serveCmd = &cobra.Command{
	Use:   "serve [pack.zip]",
	Short: "Accept clients, publish the pack and push its URL to them",
	Long: `Start the client hub, upload the pack and broadcast its URL to every
connected client. Clients joining later receive the pack according to the
send_pack settings.

The pack is uploaded again on SIGHUP, on POST /pack and, with --watch, whenever
the file changes. SIGHUP and POST /pack?refresh=true also pick the sender
strategy again.

Endpoints:
  GET  /ws       client websocket
  GET  /pack     last broadcast URL as JSON
  POST /pack     upload and broadcast again
  GET  /metrics  Prometheus metrics`,
	Example: `  packhost serve build/pack.zip
  packhost serve --config packhost.yaml --watch
  packhost serve build/pack.zip --upload-type external --upload-option class=plugins/cdn.so`,
	Args: cobra.MaximumNArgs(1),
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "HTTP listen address (overrides server.listen)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "Upload again when the pack file changes (overrides watch.enabled)")
	helpers.SetupUploadOptionFlags(serveCmd, &serveOptionFlags)
	helpers.SetupWebhookFlags(serveCmd, &serveWebhook)
}

// packStatus is the body of GET /pack
type packStatus struct {
	URL      string `json:"url"`
	SHA1     string `json:"sha1,omitempty"`
	Provider string `json:"provider"`
	Enabled  bool   `json:"enabled"`
	Clients  int    `json:"clients"`
}

func runServe(cmd *cobra.Command, args []string) error {
	s, logger, err := helpers.LoadSettings(&globalFlags)
	if err != nil {
		return err
	}

	artifactPath := s.Artifact
	if len(args) > 0 {
		artifactPath = args[0]
	}
	if artifactPath == "" {
		return fmt.Errorf("no pack given: pass a path or set artifact in the config file")
	}
	if serveListen != "" {
		s.Server.Listen = serveListen
	}
	if cmd.Flags().Changed("watch") {
		s.Watch.Enabled = serveWatch
	}

	opts, err := helpers.BuildUploadOptions(s, &serveOptionFlags)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	observers := publish.Observers{metrics.MustNewMetrics(reg)}

	webhookClient, webhookConfig, err := helpers.SetupWebhook(s.Webhook, &serveWebhook, logger)
	if err != nil {
		return err
	}
	var notifier *webhook.Notifier
	if webhookClient != nil {
		notifier = webhook.NewNotifier(webhookClient, webhookConfig.Events, logger)
		observers = append(observers, notifier)
	}

	hub := wshub.New(wshub.Config{Capabilities: s.Server.Capabilities, Logger: logger})
	scheduler := host.NewAsyncScheduler()

	manager, err := publish.New(s.Publish(opts), publish.Deps{
		Runtime:   hub,
		Scheduler: scheduler,
		Messages:  messages.NewLogSink(logger),
		Packets:   hub,
		Observer:  observers,
	})
	if err != nil {
		return fmt.Errorf("failed to create hosting provider: %w", err)
	}
	logger.Info("hosting provider ready", "provider", hosting.NameOf(manager.HostingProvider()))

	artifact := hosting.FileArtifact(artifactPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if s.Watch.Enabled {
		watcher, err := watch.New(artifact.Path(), func() {
			manager.UploadAndNotify(artifact, false)
		}, watch.WithDebounce(s.Watch.Debounce), watch.WithLogger(logger))
		if err != nil {
			return err
		}
		if err := watcher.Start(ctx); err != nil {
			return err
		}
		defer watcher.Stop()
		logger.Info("watching pack", "path", artifact.Path())
	}

	srv := &http.Server{
		Addr:              s.Server.Listen,
		Handler:           newRouter(manager, hub, reg, artifact),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", "addr", s.Server.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = hub.Close()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		reloadOnHangup(gctx, manager, artifact, logger)
		return nil
	})

	manager.UploadAndNotify(artifact, false)

	err = g.Wait()

	manager.Wait()
	if err := scheduler.Wait(); err != nil {
		logger.Error("upload task failed", "err", err)
	}
	if notifier != nil {
		notifier.Wait()
	}
	return err
}

func reloadOnHangup(ctx context.Context, manager *publish.Manager, artifact hosting.Artifact, logger *log.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			logger.Info("reload requested")
			manager.UploadAndNotify(artifact, true)
		}
	}
}

func newRouter(manager *publish.Manager, hub *wshub.Hub, gatherer prometheus.Gatherer, artifact hosting.Artifact) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/ws", gin.WrapH(hub))

	router.GET("/pack", func(c *gin.Context) {
		provider := manager.HostingProvider()
		status := packStatus{
			URL:      manager.LastURL(),
			Provider: hosting.NameOf(provider),
			Enabled:  manager.Enabled(),
			Clients:  len(hub.Connected()),
		}
		if status.URL != "" {
			status.SHA1 = hosting.SHA1Of(provider)
		}
		c.JSON(http.StatusOK, status)
	})

	router.POST("/pack", func(c *gin.Context) {
		if !manager.Enabled() {
			c.JSON(http.StatusConflict, gin.H{"error": "uploads are disabled"})
			return
		}
		manager.UploadAndNotify(artifact, c.Query("refresh") == "true")
		c.JSON(http.StatusAccepted, gin.H{"status": "scheduled"})
	})

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return router
}
