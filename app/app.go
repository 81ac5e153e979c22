package app

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sandeeptech8/library-api/config"
	"github.com/sandeeptech8/library-api/internal/handler"
	"github.com/sandeeptech8/library-api/internal/repository"
	"github.com/sandeeptech8/library-api/internal/server"
	"github.com/sandeeptech8/library-api/internal/service"
	"github.com/sandeeptech8/library-api/migrations"
	"github.com/sandeeptech8/library-api/pkg/kafka"
	"github.com/sandeeptech8/library-api/pkg/logger"
	"github.com/sandeeptech8/library-api/pkg/postgres"
)

func Run(cfg *config.Config) {
	log := logger.NewLogger(cfg.Log, "library")
	db, err := postgres.NewPostgresDB(context.Background(), &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		log.Fatal("db init", zap.Error(err))
	}
	repo, err := repository.NewRepository(db, log)
	if err != nil {
		log.Fatal("repo", zap.Error(err))
	}
	svc := service.NewService(repo, log)

	enq := handler.NewNopEnqueuer()
	var producer interface{ Close() error }
	if len(cfg.Kafka.Addrs) > 0 {
		p, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			log.Fatal("kafka.NewProducer", zap.Error(err))
		}
		enq = handler.NewEnqueuer(p)
		producer = p
	}

	h := handler.New(svc, enq, cfg.Auth.APIKey, log)
	srv := server.NewServer(cfg.Server, h.NewRouter())
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
	go func() {
		if err := srv.Run(); err != nil {
			log.Error("server run", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	termSig := <-sig

	log.Debug("Graceful shutdown", zap.Any("signal", termSig))

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = srv.Stop(closeCtx); err != nil {
		log.DPanic("srv.Stop", zap.Error(err))
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Error("producer close", zap.Error(err))
		}
	}
	db.Close()
	log.Info("Graceful shutdown finished")
}
