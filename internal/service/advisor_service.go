package service

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"rainharvest-advisor/internal/client"
	"rainharvest-advisor/internal/config"
	"rainharvest-advisor/internal/httpapi"
	"rainharvest-advisor/internal/location"
	"rainharvest-advisor/internal/report"
	"rainharvest-advisor/internal/results"
	"rainharvest-advisor/internal/session"
	"rainharvest-advisor/internal/workflow"
)

// AdvisorService assembles the workflow BFF: upstream client, session
// registry, location resolver, report retriever and the HTTP surface.
type AdvisorService struct {
	config      *config.Config
	logger      *zap.Logger
	redisClient *redis.Client
	server      *Server
}

// NewAdvisorService wires all components from configuration.
func NewAdvisorService(cfg *config.Config, logger *zap.Logger) (*AdvisorService, error) {
	advisor := client.NewAdvisor(cfg.Upstream.BaseURL, cfg.Upstream.Timeout, logger)
	// Report generation runs long upstream; it gets its own client with a
	// wider deadline.
	reportClient := client.NewAdvisor(cfg.Upstream.BaseURL, cfg.Upstream.ReportTimeout, logger)

	var redisClient *redis.Client
	var snapshots session.SnapshotStore
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		snapshots = session.NewRedisStore(redisClient, cfg.Session.SnapshotTTL)
		logger.Info("Session snapshots backed by redis", zap.String("addr", cfg.Redis.Addr))
	} else {
		snapshots = session.NewMemoryStore(cfg.Session.SnapshotTTL)
		logger.Info("Session snapshots kept in memory")
	}

	resolver := location.NewResolver(advisor, cfg.Location.CaptureTimeout, logger)
	comparator := results.NewComparator(advisor, logger)
	retriever := report.NewRetriever(reportClient, snapshots, logger)

	registry := httpapi.NewRegistry(func() *workflow.Machine {
		return workflow.NewMachine(advisor, advisor, comparator, logger)
	}, cfg.Session.IdleTTL)

	handler := httpapi.NewHandler(registry, resolver, retriever, logger)
	router := httpapi.NewRouter(logger)
	router.RegisterWorkflowRoutes(handler)

	return &AdvisorService{
		config:      cfg,
		logger:      logger,
		redisClient: redisClient,
		server:      NewServer(cfg.ListenAddr, router, logger),
	}, nil
}

// Start runs the HTTP server until it fails or is stopped.
func (s *AdvisorService) Start() error {
	return s.server.Start()
}

// Stop shuts the server down and releases the redis connection.
func (s *AdvisorService) Stop() error {
	err := s.server.Stop()
	if s.redisClient != nil {
		_ = s.redisClient.Close()
	}
	return err
}
