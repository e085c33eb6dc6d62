// launching the server, record store, broker and workers
package appServer

import (
	"context"
	"crypto/tls"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ImGucci/smart-wardrobe-ai/config"
	"github.com/ImGucci/smart-wardrobe-ai/internal/pkg/kafka"
	"github.com/ImGucci/smart-wardrobe-ai/internal/transport"
	"github.com/ImGucci/smart-wardrobe-ai/internal/worker"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.RequestTimeout + 10*time.Second,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ErrorLog:          log.New(logrus.StandardLogger().WriterLevel(logrus.ErrorLevel), "", 0),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func NewServer(cfg *config.Config) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	d, err := openStore(ctx, cfg)
	if err != nil {
		logrus.Fatalf("error occured while opening record store: %s", err.Error())
	}
	defer d.Close()

	publisher, _, err := openPublisher(cfg, d)
	if err != nil {
		logrus.Fatalf("error occured while connecting to queue: %s", err.Error())
	}

	svc, err := newServices(ctx, cfg, d, publisher)
	if err != nil {
		logrus.Fatalf("error occured while building services: %s", err.Error())
	}

	if publisher != nil {
		sweeper := worker.NewPendingSweepWorker(svc.wardrobe, cfg.Queue.StaleAfter, cfg.Queue.SweepInterval)
		go sweeper.Start(ctx)
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	maxUpload := cfg.Server.MaxUploadMB << 20
	router := transport.InitRoutes(&transport.Handlers{
		Wardrobe: transport.NewWardrobeHandler(svc.wardrobe, maxUpload),
		Profile:  transport.NewProfileHandler(svc.profile, maxUpload),
		Stylist:  transport.NewStylistHandler(svc.stylist),
		Compose:  transport.NewComposeHandler(svc.composition, maxUpload),
		Health:   d.health,
	}, cfg.Server.RequestTimeout)
	router.MaxMultipartMemory = maxUpload

	srv := new(Server)
	go func() {
		if err := srv.Run(cfg, router); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.WithFields(logrus.Fields{
		"port":    cfg.Server.Port,
		"version": cfg.Server.AppVersion,
		"env":     cfg.Server.Env,
		"storage": cfg.Storage.Driver,
		"queue":   cfg.Queue.Driver,
	}).Print("App Started")

	<-ctx.Done()

	logrus.Print("App Shutting Down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}
}

// RunProcessor consumes analysis tasks until SIGINT or SIGTERM.
func RunProcessor(cfg *config.Config) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	d, err := openStore(ctx, cfg)
	if err != nil {
		logrus.Fatalf("error occured while opening record store: %s", err.Error())
	}
	defer d.Close()

	publisher, queue, err := openPublisher(cfg, d)
	if err != nil {
		logrus.Fatalf("error occured while connecting to queue: %s", err.Error())
	}
	if publisher == nil {
		logrus.Fatalf("processor needs a reachable kafka or rabbitmq queue, driver is %q", cfg.Queue.Driver)
	}

	svc, err := newServices(ctx, cfg, d, publisher)
	if err != nil {
		logrus.Fatalf("error occured while building services: %s", err.Error())
	}
	analysis := worker.NewAnalysisWorker(svc.wardrobe, publisher, cfg.Queue.MaxAttempts)

	switch {
	case queue != nil:
		if err := queue.Consume(ctx, analysis.HandleMessage); err != nil {
			logrus.Fatalf("error occured while consuming: %s", err.Error())
		}
		logrus.WithField("queue", cfg.Queue.Topic).Info("rabbitmq consumer started")
		<-ctx.Done()
	default:
		consumer := kafka.NewConsumer(cfg.Queue.KafkaBrokers, cfg.Queue.Topic, cfg.Queue.GroupID)
		defer consumer.Close()
		if err := consumer.Run(ctx, analysis.HandleMessage); err != nil {
			logrus.Errorf("kafka consumer stopped: %s", err.Error())
		}
	}

	logrus.Print("Processor Shutting Down")
}
