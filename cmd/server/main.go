package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"fides/internal/circle"
	circlehandler "fides/internal/circle/handler"
	"fides/internal/identity"
	identityhandler "fides/internal/identity/handler"
	identitymetrics "fides/internal/identity/metrics"
	"fides/internal/jwttoken"
	"fides/internal/platform/config"
	"fides/internal/platform/httpserver"
	"fides/internal/platform/logger"
	"fides/internal/platform/redis"
	"fides/internal/proposal"
	proposalhandler "fides/internal/proposal/handler"
	"fides/internal/rbac"
	rbachandler "fides/internal/rbac/handler"
	"fides/internal/region"
	"fides/internal/reputation"
	reputationhandler "fides/internal/reputation/handler"
	reputationmetrics "fides/internal/reputation/metrics"
	"fides/internal/skill"
	skillhandler "fides/internal/skill/handler"
	httptransport "fides/internal/transport/http"
	"fides/internal/vouch"
	"fides/internal/vouch/graph"
	vouchhandler "fides/internal/vouch/handler"
	vouchmetrics "fides/internal/vouch/metrics"
	id "fides/pkg/domain"
	"fides/pkg/platform/audit"
	"fides/pkg/platform/audit/publisher"
	auditchannel "fides/pkg/platform/audit/store/channel"
	auditkafka "fides/pkg/platform/audit/store/kafka"
	auditmemory "fides/pkg/platform/audit/store/memory"
	auditworker "fides/pkg/platform/audit/worker"
	txcontext "fides/pkg/platform/tx"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal services.
func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var owner id.UserID
	if cfg.OwnerID != "" {
		parsed, err := id.ParseUserID(cfg.OwnerID)
		if err != nil {
			log.Error("invalid FIDES_OWNER_ID", "error", err.Error())
			os.Exit(1)
		}
		owner = parsed
	}

	// Stores: PostgreSQL when a DSN is configured, in-memory otherwise.
	var (
		profileStore identity.Store
		ledgerStore  vouch.Store
		transactor   txcontext.Transactor
	)
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres open failed", "error", err.Error())
			os.Exit(1)
		}
		if err := db.PingContext(ctx); err != nil {
			log.Error("postgres ping failed", "error", err.Error())
			os.Exit(1)
		}
		defer db.Close()
		profileStore = identity.NewPostgres(db)
		ledgerStore = vouch.NewPostgres(db)
		transactor = txcontext.NewDB(db)
	} else {
		profileStore = identity.NewInMemoryStore()
		ledgerStore = vouch.NewInMemoryStore()
		log.Info("no POSTGRES_DSN set, using in-memory stores")
	}

	// Audit: buffered Kafka drain when brokers are configured, in-process
	// sink otherwise.
	group, ctx := errgroup.WithContext(ctx)
	var auditSink audit.Store = auditmemory.New()
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaStore, err := auditkafka.New(ctx, auditkafka.Options{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		})
		if err != nil {
			log.Error("kafka audit sink failed", "error", err.Error())
			os.Exit(1)
		}
		defer kafkaStore.Close()

		buffer := auditchannel.New(1024)
		worker := auditworker.New(kafkaStore, buffer.Events(), log)
		group.Go(func() error {
			err := worker.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
		auditSink = buffer
	}
	auditor := publisher.New(auditSink, publisher.WithLogger(log))

	roles := rbac.New(owner, rbac.WithLogger(log), rbac.WithAuditPublisher(auditor))
	trust := region.NewTable()

	identitySvc := identity.New(profileStore, roles,
		identity.WithLogger(log),
		identity.WithAuditPublisher(auditor),
		identity.WithMetrics(identitymetrics.New()))

	skillStore := skill.NewInMemoryStore()
	skillSvc := skill.New(skillStore, roles,
		skill.WithLogger(log),
		skill.WithAuditPublisher(auditor))

	reputationOpts := []reputation.Option{
		reputation.WithLogger(log),
		reputation.WithAuditPublisher(auditor),
		reputation.WithMetrics(reputationmetrics.New()),
	}
	cache, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connect failed", "error", err.Error())
		os.Exit(1)
	}
	if cache != nil {
		defer cache.Close()
		reputationOpts = append(reputationOpts, reputation.WithCache(cache, cfg.Redis.ScoreTTL))
	}
	reputationSvc := reputation.New(profileStore, ledgerStore, trust, roles, reputationOpts...)

	vouchOpts := []vouch.Option{
		vouch.WithLogger(log),
		vouch.WithAuditPublisher(auditor),
		vouch.WithMetrics(vouchmetrics.New()),
	}
	if transactor != nil {
		vouchOpts = append(vouchOpts, vouch.WithTransactor(transactor))
	}
	if cfg.Graph.URI != "" {
		graphClient, err := graph.NewNeo4jClient(ctx, graph.Options{
			URI:      cfg.Graph.URI,
			Database: cfg.Graph.Database,
			Username: cfg.Graph.Username,
			Password: cfg.Graph.Password,
		})
		if err != nil {
			log.Error("neo4j connect failed", "error", err.Error())
			os.Exit(1)
		}
		defer graphClient.Close(context.Background())
		vouchOpts = append(vouchOpts, vouch.WithProjector(graph.NewProjector(graphClient)))
	}
	vouchSvc := vouch.New(ledgerStore, profileStore, skillStore, reputationSvc, roles, vouchOpts...)

	circleSvc := circle.New(circle.NewInMemoryStore(), reputationSvc, roles,
		circle.WithLogger(log),
		circle.WithAuditPublisher(auditor))

	proposalSvc := proposal.New(proposal.NewInMemoryStore(), circleSvc, reputationSvc, cfg.Voting,
		proposal.WithLogger(log),
		proposal.WithAuditPublisher(auditor))

	tokens := jwttoken.New(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)

	router := httptransport.New(httptransport.Handlers{
		Identity:   identityhandler.New(identitySvc, log),
		Skill:      skillhandler.New(skillSvc, log),
		Vouch:      vouchhandler.New(vouchSvc, log),
		Reputation: reputationhandler.New(reputationSvc, log),
		RBAC:       rbachandler.New(roles, log),
		Circle:     circlehandler.New(circleSvc, log),
		Proposal:   proposalhandler.New(proposalSvc, log),
	}, tokens, log)

	srv := httpserver.New(cfg.Addr, router)

	group.Go(func() error {
		log.Info("starting fides", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
}
