package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BloggingApp/threadly/internal/config"
	"github.com/BloggingApp/threadly/internal/handler"
	applogger "github.com/BloggingApp/threadly/internal/logger"
	"github.com/BloggingApp/threadly/internal/rabbitmq"
	"github.com/BloggingApp/threadly/internal/repository"
	"github.com/BloggingApp/threadly/internal/repository/postgres"
	"github.com/BloggingApp/threadly/internal/server"
	"github.com/BloggingApp/threadly/internal/service"
	"github.com/BloggingApp/threadly/internal/thread"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bootLogger, _ := zap.NewProduction()

	if err := loadEnv(); err != nil {
		bootLogger.Sugar().Warnf("failed to load .env file: %s", err.Error())
	}

	if err := initConfig(); err != nil {
		bootLogger.Sugar().Panicf("failed to initialize yaml config: %s", err.Error())
	}

	logger := applogger.New(config.LogConfig{
		Level:      viper.GetString("log.level"),
		Path:       viper.GetString("log.path"),
		MaxSizeMB:  viper.GetInt("log.max-size-mb"),
		MaxBackups: viper.GetInt("log.max-backups"),
		MaxAgeDays: viper.GetInt("log.max-age-days"),
		Compress:   viper.GetBool("log.compress"),
	})
	defer logger.Sync()

	dbConfig := config.DBConfig{
		Username: os.Getenv("POSTGRES_USER"),
		Password: os.Getenv("POSTGRES_PASSWORD"),
		Host:     os.Getenv("POSTGRES_HOST"),
		Port:     os.Getenv("POSTGRES_PORT"),
		DBName:   os.Getenv("POSTGRES_DATABASE"),
		SSLMode:  os.Getenv("POSTGRES_SSLMODE"),
	}
	db, err := connectPostgres(ctx, logger, dbConfig)
	if err != nil {
		logger.Sugar().Panicf("failed to connect to postgres: %s", err.Error())
	}
	defer db.Close()
	logger.Info("Successfully connected to PostgreSQL")

	if err := postgres.Migrate(db); err != nil {
		logger.Sugar().Panicf("failed to migrate postgres: %s", err.Error())
	}

	redisOptions := &redis.Options{
		Addr: os.Getenv("REDIS_ADDR"),
	}
	rdb := redis.NewClient(redisOptions)
	pong, err := rdb.Ping(ctx).Result()
	if err != nil {
		logger.Sugar().Panicf("failed to ping redis: %s", err.Error())
	}
	logger.Sugar().Infof("Successfully connected to Redis: %s", pong)

	mq, err := rabbitmq.New(os.Getenv("RABBITMQ_CONN_STRING"))
	if err != nil {
		logger.Sugar().Panicf("failed to connect to rabbitmq: %s", err.Error())
	}
	defer mq.Close()
	logger.Info("Successfully connected to RabbitMQ")

	threads, err := thread.NewRegistry(viper.GetInt("threads.max-sessions"))
	if err != nil {
		logger.Sugar().Panicf("failed to create thread registry: %s", err.Error())
	}

	repos := repository.New(db, rdb, logger)
	services := service.New(logger, repos, mq)
	handlers := handler.New(logger, services, threads)

	srv := server.New()
	serverConfig := config.ServerConfig{
		Port:           viper.GetString("app.port"),
		Handler:        handlers.InitRoutes(),
		MaxHeaderBytes: 1 << 20,
		ReadTimeout:    time.Second * 10,
		// thread streams stay open for as long as the client watches
		WriteTimeout: 0,
	}
	go func() {
		if err := srv.Run(serverConfig); err != nil {
			logger.Sugar().Panicf("failed to run http server: %s", err.Error())
		}
	}()

	services.StartConsumeAll(ctx)

	logger.Info("Server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logger.Info("Server shutting down")

	cancel()
	threads.Purge()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Errorf("failed to shut down http server: %s", err.Error())
	}
}

func connectPostgres(ctx context.Context, logger *zap.Logger, cfg config.DBConfig) (*pgxpool.Pool, error) {
	retries := viper.GetUint64("postgres.connect-retries")
	if retries == 0 {
		retries = 5
	}
	backoff := retry.WithMaxRetries(retries, retry.NewExponential(500*time.Millisecond))

	var db *pgxpool.Pool
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		pool, err := postgres.DB(ctx, cfg)
		if err != nil {
			return err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			logger.Sugar().Warnf("postgres is not ready yet: %s", err.Error())
			return retry.RetryableError(err)
		}
		db = pool
		return nil
	})

	return db, err
}

func loadEnv() error {
	return godotenv.Load()
}

func initConfig() error {
	viper.AddConfigPath(".")
	viper.SetConfigType("yaml")
	viper.SetConfigName("app")
	return viper.ReadInConfig()
}
