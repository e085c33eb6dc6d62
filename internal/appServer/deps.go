package appServer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ImGucci/smart-wardrobe-ai/config"
	"github.com/ImGucci/smart-wardrobe-ai/internal/database"
	"github.com/ImGucci/smart-wardrobe-ai/internal/database/file"
	"github.com/ImGucci/smart-wardrobe-ai/internal/database/postgres"
	redisstore "github.com/ImGucci/smart-wardrobe-ai/internal/database/redis"
	"github.com/ImGucci/smart-wardrobe-ai/internal/pkg/ai"
	"github.com/ImGucci/smart-wardrobe-ai/internal/pkg/background"
	"github.com/ImGucci/smart-wardrobe-ai/internal/pkg/compositor"
	"github.com/ImGucci/smart-wardrobe-ai/internal/pkg/kafka"
	"github.com/ImGucci/smart-wardrobe-ai/internal/pkg/processor"
	"github.com/ImGucci/smart-wardrobe-ai/internal/pkg/rabbitMQ"
	"github.com/ImGucci/smart-wardrobe-ai/internal/pkg/storage"
	"github.com/ImGucci/smart-wardrobe-ai/internal/service"
	"github.com/ImGucci/smart-wardrobe-ai/internal/transport"
	"github.com/sirupsen/logrus"
)

const (
	QueueNone     = "none"
	QueueKafka    = "kafka"
	QueueRabbitMQ = "rabbitmq"
)

// deps holds every long-lived resource of a process.
type deps struct {
	files   storage.FileStorage
	repos   *database.Repositories
	health  map[string]transport.HealthCheck
	closers []func() error
}

func (d *deps) onClose(fn func() error) {
	d.closers = append(d.closers, fn)
}

// Close releases resources in reverse order of acquisition.
func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			logrus.WithError(err).Warn("error while closing resource")
		}
	}
}

func openStore(ctx context.Context, cfg *config.Config) (*deps, error) {
	d := &deps{
		files:  storage.NewFileStorage(cfg.Storage.BasePath),
		health: map[string]transport.HealthCheck{},
	}

	var backend database.Backend
	switch driver := strings.ToLower(cfg.Storage.Driver); driver {
	case "", "file":
		backend = file.NewBackend(d.files)
	case "redis":
		client, err := redisstore.NewRedisClient(ctx, &cfg.Redis)
		if err != nil {
			return nil, err
		}
		backend = redisstore.NewBackend(client, cfg.Redis.KeyPrefix)
		d.health["redis"] = func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(ctx).Err()
		}
	case "postgres":
		db, err := postgres.NewPostgresDB(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := postgres.RunMigrations(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		backend = postgres.NewBackend(db)
		d.health["postgres"] = db.Ping
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	d.onClose(backend.Close)
	d.repos = database.NewRepositories(backend)
	logrus.WithField("driver", cfg.Storage.Driver).Info("record store ready")
	return d, nil
}

// openPublisher connects the configured broker. A nil publisher means items
// are analysed inline.
func openPublisher(cfg *config.Config, d *deps) (service.TaskPublisher, *rabbitMQ.RabbitMQ, error) {
	switch strings.ToLower(cfg.Queue.Driver) {
	case "", QueueNone:
		return nil, nil, nil
	case QueueKafka:
		producer := kafka.NewProducer(cfg.Queue.KafkaBrokers, cfg.Queue.Topic)
		if kafka.IsMock(producer) {
			logrus.Warn("kafka is unreachable, analysing items inline")
			return nil, nil, nil
		}
		d.onClose(producer.Close)
		return service.NewKafkaAdapter(producer, cfg.Queue.Topic, cfg.Queue.RetryDelay), nil, nil
	case QueueRabbitMQ:
		queue, err := rabbitMQ.NewRabbitMQ(rabbitMQ.RabbitMQConfig{
			URL:       cfg.Queue.RabbitMQURL,
			QueueName: cfg.Queue.Topic,
		})
		if err != nil {
			return nil, nil, err
		}
		d.onClose(queue.Close)
		if err := queue.DeclareDelays(service.RetryDelays(cfg.Queue.RetryDelay, cfg.Queue.MaxAttempts)...); err != nil {
			return nil, nil, err
		}
		d.health["rabbitmq"] = queue.HealthCheck
		return service.NewRabbitAdapter(queue, cfg.Queue.RetryDelay), queue, nil
	default:
		return nil, nil, fmt.Errorf("unknown queue driver %q", cfg.Queue.Driver)
	}
}

type services struct {
	wardrobe    service.WardrobeService
	profile     service.ProfileService
	stylist     service.StylistService
	composition service.CompositionService
}

func newServices(ctx context.Context, cfg *config.Config, d *deps, publisher service.TaskPublisher) (*services, error) {
	aiClient, err := ai.NewClient(ctx, cfg.AI)
	if err != nil {
		return nil, err
	}

	proc := processor.NewImageProcessor()
	remover := background.NewRemover(cfg.Background.Enabled, cfg.Background.Endpoint, cfg.Background.Timeout)
	composition := service.NewCompositionService(d.repos.Wardrobe, d.files, compositor.New(nil, nil))

	return &services{
		wardrobe:    service.NewWardrobeService(d.repos.Wardrobe, d.files, aiClient, remover, proc, publisher),
		profile:     service.NewProfileService(d.repos.Profile, d.files, proc),
		stylist:     service.NewStylistService(d.repos, d.files, aiClient, composition, cfg.AI.GenerateLook),
		composition: composition,
	}, nil
}
