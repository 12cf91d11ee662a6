package main

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"

	"github.com/MagicCL33/Dashboard/internal/adapter/repository/memory"
	"github.com/MagicCL33/Dashboard/internal/adapter/repository/natskv"
	"github.com/MagicCL33/Dashboard/internal/adapter/repository/postgres"
	"github.com/MagicCL33/Dashboard/internal/adapter/repository/redis"
	"github.com/MagicCL33/Dashboard/internal/config"
	"github.com/MagicCL33/Dashboard/internal/domain"
)

// storage holds the blob store and the connections behind it
type storage struct {
	blobs   domain.BlobStore
	closers []func()

	js jetstream.JetStream
}

func (s *storage) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// jetStream connects to NATS once and shares the connection between storage and events
func (s *storage) jetStream(url string) (jetstream.JetStream, error) {
	if s.js != nil {
		return s.js, nil
	}
	nc, err := nats.Connect(url, nats.Name("dashboard"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats at %s: %w", url, err)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create jetstream context: %w", err)
	}
	s.js = js
	s.closers = append(s.closers, func() { nc.Drain() })
	return js, nil
}

func openStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*storage, error) {
	s := &storage{}
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	switch cfg.Storage.Backend {
	case config.BackendRedis:
		client, err := redis.NewClient(connectCtx, redis.Options{
			Addr:     cfg.Storage.Redis.Addr,
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() { client.Close() })
		s.blobs = redis.NewBlobStore(client, cfg.Storage.Timeout)

	case config.BackendPostgres:
		db, err := postgres.NewDB(connectCtx, cfg.PostgresDSN())
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() { db.Close() })
		if err := db.EnsureSchema(connectCtx); err != nil {
			s.Close()
			return nil, err
		}
		s.blobs = postgres.NewBlobRepository(db, cfg.Storage.Timeout)

	case config.BackendNATS:
		js, err := s.jetStream(cfg.Storage.NATS.URL)
		if err != nil {
			return nil, err
		}
		kv, err := natskv.EnsureBucket(connectCtx, js, cfg.Storage.NATS.Bucket)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.blobs = natskv.NewBlobStore(kv)

	default:
		logger.Warn().Msg("using in-memory storage, the ledger is lost on exit")
		s.blobs = memory.NewBlobStore()
	}

	logger.Info().Str("backend", cfg.Storage.Backend).Str("key_prefix", cfg.Storage.KeyPrefix).Msg("storage ready")
	return s, nil
}
