package main

import (
	"context"
	"os"
	"path"
	"runtime"
	"time"

	"github.com/coder/quartz"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/sales-performance-api/infrastructure/database/postgres"
	"github.com/vfg2006/sales-performance-api/infrastructure/lock"
	"github.com/vfg2006/sales-performance-api/infrastructure/repository"
	"github.com/vfg2006/sales-performance-api/infrastructure/repository/memory"
	"github.com/vfg2006/sales-performance-api/internal/api"
	"github.com/vfg2006/sales-performance-api/internal/api/handler"
	"github.com/vfg2006/sales-performance-api/internal/config"
	"github.com/vfg2006/sales-performance-api/internal/events"
	"github.com/vfg2006/sales-performance-api/internal/scheduler"
	"github.com/vfg2006/sales-performance-api/internal/usecases/archiving"
	"github.com/vfg2006/sales-performance-api/internal/usecases/authenticating"
	"github.com/vfg2006/sales-performance-api/internal/usecases/counting"
	"github.com/vfg2006/sales-performance-api/internal/usecases/stats"
)

// storage agrupa os repositórios usados pelos serviços, independente do driver
type storage struct {
	counters repository.CounterStore
	history  repository.HistoryRepository
	users    repository.UserRepository
	ping     func(ctx context.Context) error
	close    func()
}

func main() {
	// Inicializa configuração de logs
	configureLogger()

	cfg, err := config.NewConfig()
	if err != nil {
		logrus.Fatal(err)
	}

	// Define o nível de log com base na configuração
	logLevel, err := logrus.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		logrus.Warnf("Nível de log inválido: %s, usando 'info'", cfg.App.LogLevel)
		logLevel = logrus.InfoLevel
	}
	logrus.SetLevel(logLevel)
	logrus.Infof("Nível de log configurado para: %s", logLevel)

	location, err := cfg.Location()
	if err != nil {
		logrus.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := quartz.NewReal()

	store := openStorage(ctx, cfg)
	defer store.close()

	health := handler.HealthChecks{}
	if store.ping != nil {
		health["postgres"] = store.ping
	}

	locker, redisPing := sweepLocker(ctx, cfg)
	if redisPing != nil {
		health["redis"] = redisPing
	}

	archiver := archiving.NewService(store.counters, clock, archiving.Config{
		MaxConcurrentJobs: cfg.RolloverSweep.MaxConcurrentJobs,
		Location:          location,
	})
	counters := counting.NewService(store.counters, archiver, clock, location)
	viewer := stats.NewService(counters, archiver, store.counters, store.history, store.users, clock, location)
	authenticator := authenticating.NewService(store.users, clock, cfg)

	eventHandler := events.NewHandler(counters, cfg.Commission.DefaultRate)
	if cfg.RabbitMQ.Enabled {
		events.NewConsumer(cfg.RabbitMQ, eventHandler).Start(ctx)
		logrus.WithField("queue", cfg.RabbitMQ.Queue).Info("Consumidor de eventos de negócio iniciado")
	}

	rolloverSweepService := scheduler.NewRolloverSweepService(archiver, locker, clock, location, cfg)
	if err := rolloverSweepService.Start(ctx); err != nil {
		logrus.WithError(err).Error("Erro ao iniciar o agendador de virada de período")
	} else {
		logrus.Info("Agendador de virada de período iniciado com sucesso")
	}

	server, err := api.New(cfg, api.Services{
		Authenticator: authenticator,
		Viewer:        viewer,
		Counters:      counters,
		Sweeper:       rolloverSweepService,
		Events:        eventHandler,
		CronJobs: handler.CronJobServices{
			RolloverSweepService: rolloverSweepService,
		},
		Health: health,
		Clock:  clock,
	})
	if err != nil {
		logrus.Fatal(err)
	}

	if err := server.Run(ctx); err != nil {
		logrus.Error(err)
	}
}

// configureLogger configura o formato e comportamento dos logs
func configureLogger() {
	_, file, _, _ := runtime.Caller(0)
	dir := path.Dir(file)
	os.Chdir(dir)

	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
}

func openStorage(ctx context.Context, cfg *config.Config) storage {
	if cfg.Database.Driver == config.DatabaseDriverMemory {
		logrus.Warn("Usando armazenamento em memória, os dados não sobrevivem ao reinício")
		store := memory.NewStore()
		return storage{counters: store, history: store, users: store, close: func() {}}
	}

	conn := pgconn(ctx, cfg.Database)
	return storage{
		counters: repository.NewCounterStore(conn),
		history:  repository.NewHistoryRepository(conn),
		users:    repository.NewUserRepository(conn),
		ping:     conn.Ping,
		close:    func() { conn.Close() },
	}
}

// pgconn cria uma conexão com o banco de dados
func pgconn(ctx context.Context, dbConfig config.Database) *postgres.Connection {
	conn, err := postgres.NewConnection(ctx, dbConfig)
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao conectar ao PostgreSQL")
	}

	err = conn.Ping(ctx)
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao testar conexão com PostgreSQL")
	}

	logrus.Info("Conexão com PostgreSQL estabelecida com sucesso")
	return conn
}

// sweepLocker usa o Redis para impedir varreduras simultâneas entre réplicas.
// Devolve também a verificação de saúde do Redis, nula quando ele não está em uso.
func sweepLocker(ctx context.Context, cfg *config.Config) (lock.Locker, func(context.Context) error) {
	if !cfg.Redis.Enabled {
		return lock.LocalLocker{}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logrus.WithError(err).Warn("Redis indisponível, a varredura usará apenas o bloqueio local")
		return lock.LocalLocker{}, nil
	}

	ttl := time.Duration(cfg.RolloverSweep.LockTTLSeconds) * time.Second
	ping := func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	return lock.NewRedisLocker(rdb, ttl), ping
}
