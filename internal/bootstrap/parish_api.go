package bootstrap

import (
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	apihttp "parish_server/adapter/in/http"
	"parish_server/config"
	"parish_server/core/port/out"
	"parish_server/infra/middleware"
	"parish_server/pkg/logger"
)

// NewAPI builds the Fiber application and returns it with its cleanup.
func NewAPI(cfg *config.Config) (*fiber.App, func(), error) {
	deps, cleanup, err := NewDependencies(cfg)
	if err != nil {
		logger.WithError(err).Error("failed to initialize dependencies")
		return nil, nil, err
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(),
		DisableStartupMessage: true,
		ReadBufferSize:        16384,
		WriteBufferSize:       16384,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		BodyLimit:             10 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger())

	apihttp.NewHealthHandler(deps.DB, deps.Redis).Register(app)

	var ledger out.RunLedger
	if deps.RunLedger != nil {
		ledger = deps.RunLedger
	}
	var archive out.ReplyArchive
	if deps.Archive != nil {
		archive = deps.Archive
	}
	handler := apihttp.NewHandler(
		deps.Orchestrator,
		deps.Orchestrator,
		deps.Orchestrator,
		ledger,
		archive,
	)
	handler.Register(app, middleware.PushAuth(cfg.Auth.JWTSecret, cfg.Auth.PubSubAudience))

	return app, cleanup, nil
}
