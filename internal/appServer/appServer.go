// launching the server, frames, output store and event brokers
package appServer

import (
	"context"
	"crypto/tls"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ds124wfegd/icongen/config"
	"github.com/ds124wfegd/icongen/internal/database"
	"github.com/ds124wfegd/icongen/internal/entity"
	"github.com/ds124wfegd/icongen/internal/pkg/icongen"
	"github.com/ds124wfegd/icongen/internal/pkg/kafka"
	"github.com/ds124wfegd/icongen/internal/pkg/rabbitMQ"
	"github.com/ds124wfegd/icongen/internal/pkg/redis"
	"github.com/ds124wfegd/icongen/internal/pkg/storage"
	"github.com/ds124wfegd/icongen/internal/service"
	"github.com/ds124wfegd/icongen/internal/transport"
	"github.com/ds124wfegd/icongen/internal/worker"
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
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.Idle_timeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func NewServer(cfg *config.Config) {

	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	level, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	supported := icongen.IsSupported(cfg.Render.MIMEType)
	if !supported {
		logrus.Warnf("output type %s is not supported, serving landing page only", cfg.Render.MIMEType)
	}

	checks := map[string]transport.HealthCheck{}

	// Frames
	frameStorage := storage.NewFileStorage(cfg.Frames.Dir)
	frameRepo := database.NewFrameRepository(frameStorage, framesFromConfig(cfg.Frames.List))
	for _, f := range frameRepo.List() {
		if _, err := frameRepo.LoadFrame(f.Value); err != nil {
			logrus.Warnf("frame %q unavailable: %v", f.Label, err)
		}
	}

	// Output store
	var outputRepo database.OutputRepository = database.NewMemoryOutputRepository()
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewRedisClient(&cfg.Redis)
		if err != nil {
			logrus.Errorf("Failed to connect to Redis: %v. Keeping downloads in memory...", err)
		} else {
			defer redisClient.Close()
			outputRepo = database.NewRedisOutputRepository(redisClient)
			checks["redis"] = func() error {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				return redisClient.Ping(ctx).Err()
			}
			logrus.Info("Redis output store initialized")
		}
	}

	// Event brokers
	var publisher service.EventPublisher
	switch {
	case cfg.Kafka.Enabled:
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		publisher = service.NewKafkaPublisher(producer)
		logrus.Info("Kafka event publisher initialized")
	case cfg.RabbitMQ.Enabled:
		queue, err := rabbitMQ.NewRabbitMQ(rabbitMQ.RabbitMQConfig{
			URL:       cfg.RabbitMQ.URL,
			QueueName: cfg.RabbitMQ.QueueName,
		})
		if err != nil {
			logrus.Errorf("Failed to connect to RabbitMQ: %v. Continuing without events...", err)
		} else {
			defer queue.Close()
			publisher = service.NewRabbitPublisher(queue)
			checks["rabbitmq"] = queue.HealthCheck
			logrus.Info("RabbitMQ event publisher initialized")
		}
	}

	iconService, err := service.NewIconService(frameRepo, outputRepo, publisher, service.Settings{
		DrawSize:    cfg.Render.DrawSize,
		Sizes:       cfg.Render.Sizes,
		MaxDrawSize: cfg.Render.MaxDrawSize,
		Suffix:      cfg.Render.Suffix,
		MIMEType:    cfg.Render.MIMEType,
		Resampler:   cfg.Render.Resampler,
		OutputTTL:   cfg.App.OutputTTL,
	})
	if err != nil && supported {
		logrus.Fatalf("Failed to initialize icon service: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if iconService != nil {
		cleanupWorker := worker.NewSessionCleanupWorker(iconService, cfg.App.CleanupInterval, cfg.App.SessionTTL)
		go cleanupWorker.Start(ctx)
		logrus.Info("Session cleanup worker started")
	}

	iconHandler := transport.NewIconHandler(iconService, cfg.App.MaxUploadBytes, checks)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := new(Server)
	go func() {
		router := transport.InitRoutes(iconHandler, transport.RouteConfig{
			Supported:      supported,
			RequestTimeout: cfg.App.RequestTimeout,
		})
		if err := srv.Run(cfg, router); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.Print("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}
}

func framesFromConfig(list []config.FrameConfig) []entity.Frame {
	frames := make([]entity.Frame, 0, len(list))
	for _, f := range list {
		frames = append(frames, entity.Frame{Label: f.Label, Value: f.File})
	}
	return frames
}
