// Package bootstrap assembles the application from configuration.
package bootstrap

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"parish_server/adapter/out/cache"
	gmailadapter "parish_server/adapter/out/gmail"
	"parish_server/adapter/out/llm"
	"parish_server/adapter/out/mongodb"
	"parish_server/adapter/out/persistence"
	"parish_server/adapter/out/sheets"
	"parish_server/config"
	"parish_server/core/port/out"
	"parish_server/core/service/booking"
	"parish_server/core/service/classify"
	"parish_server/core/service/filter"
	"parish_server/core/service/gateway"
	"parish_server/core/service/knowledge"
	"parish_server/core/service/memory"
	"parish_server/core/service/pipeline"
	"parish_server/core/service/prompt"
	"parish_server/core/service/schedule"
	"parish_server/core/service/territory"
	"parish_server/core/service/validate"
	"parish_server/infra/database"
	"parish_server/pkg/logger"
)

// Dependencies aggregates every constructed component. Postgres and
// MongoDB are optional; the run ledger and the rejected-reply archive
// are simply absent without them.
type Dependencies struct {
	Config *config.Config

	DB      *pgxpool.Pool
	SQLDB   *sqlx.DB
	Redis   *redis.Client
	MongoDB *mongo.Client

	Cache     *cache.RedisCache
	Mail      *gmailadapter.Adapter
	Sheets    *sheets.Adapter
	Generator out.TextGenerator
	Archive   *mongodb.ArchiveAdapter
	RunLedger *persistence.RunLedgerAdapter
	Booking   *booking.Service

	Orchestrator *pipeline.Orchestrator
}

func NewDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	ctx := context.Background()
	deps := &Dependencies{Config: cfg}
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	redisClient, err := database.NewRedis(cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	deps.Redis = redisClient
	cleanups = append(cleanups, func() { redisClient.Close() })
	deps.Cache = cache.New(redisClient, cfg.Redis)

	if cfg.Database.URL != "" {
		pool, err := database.NewPostgres(cfg.Database)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		deps.DB = pool
		deps.SQLDB = database.NewSQLX(pool)
		deps.RunLedger = persistence.NewRunLedgerAdapter(deps.SQLDB)
		cleanups = append(cleanups, pool.Close)
	} else {
		logger.Warn("DATABASE_URL not set, run history disabled")
	}

	if cfg.Mongo.URI != "" {
		mongoClient, err := mongodb.NewClient(cfg.Mongo.URI)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		deps.MongoDB = mongoClient
		cleanups = append(cleanups, func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			mongoClient.Disconnect(disconnectCtx)
		})

		archive := mongodb.NewArchiveAdapter(mongoClient.Database(cfg.Mongo.Database), cfg.Mongo.ArchiveTTL)
		if err := archive.EnsureIndexes(ctx); err != nil {
			logger.WithError(err).Warn("failed to ensure archive indexes")
		}
		deps.Archive = archive
	} else {
		logger.Warn("MONGO_URI not set, rejected reply archive disabled")
	}

	mailAdapter, err := gmailadapter.New(ctx, cfg.Mail)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	deps.Mail = mailAdapter

	sheetsAdapter, err := sheets.New(ctx, cfg.Knowledge, cfg.Mail.CredentialsFile)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	deps.Sheets = sheetsAdapter

	generator, err := llm.NewProvider(cfg.LLM)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	deps.Generator = generator

	knowledgeSvc := knowledge.NewService(sheetsAdapter, cfg.Knowledge.CacheTTL)
	memorySvc := memory.NewService(deps.Cache, deps.Cache)
	deps.Booking = booking.NewService(sheetsAdapter)

	svcDeps := pipeline.Deps{
		Mail:       mailAdapter,
		Gateway:    gateway.New(generator, cfg.LLM),
		Knowledge:  knowledgeSvc,
		Schedule:   schedule.NewService(cfg.Schedule),
		Filter:     filter.New(cfg.Mail.ImpersonateEmail, cfg.Mail.SenderBlocklist, cfg.Mail.IgnoreKeywords),
		Classifier: classify.NewClassifier(cfg.Mail.ForceReplyKeywords),
		Validator:  validate.NewValidator(cfg.Validation),
		Territory:  territory.NewValidator(),
		Composer:   prompt.NewComposer(),
		Memory:     memorySvc,
		Booking:    deps.Booking,
	}
	if deps.Archive != nil {
		svcDeps.Archive = deps.Archive
	}
	if deps.RunLedger != nil {
		svcDeps.Ledger = deps.RunLedger
	}

	deps.Orchestrator = pipeline.New(cfg, svcDeps)
	return deps, cleanup, nil
}
