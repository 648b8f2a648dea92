// Package http exposes the processing pipeline over Fiber.
package http

import (
	"encoding/base64"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"

	"parish_server/core/port/in"
	"parish_server/core/port/out"
	"parish_server/pkg/apperr"
	"parish_server/pkg/logger"
)

type Handler struct {
	process   in.ProcessUseCase
	notify    in.NotificationUseCase
	knowledge in.KnowledgeUseCase
	ledger    out.RunLedger
	archive   out.ReplyArchive
	log       *logger.Logger
}

func NewHandler(process in.ProcessUseCase, notify in.NotificationUseCase, knowledge in.KnowledgeUseCase, ledger out.RunLedger, archive out.ReplyArchive) *Handler {
	return &Handler{
		process:   process,
		notify:    notify,
		knowledge: knowledge,
		ledger:    ledger,
		archive:   archive,
		log:       logger.WithField("component", "http"),
	}
}

// Register mounts the routes. pushAuth guards the Pub/Sub endpoint only.
func (h *Handler) Register(app *fiber.App, pushAuth fiber.Handler) {
	v1 := app.Group("/v1")
	v1.Post("/process", h.Process)
	v1.Post("/pubsub/push", pushAuth, h.PubSubPush)
	v1.Post("/knowledge/invalidate", h.InvalidateKnowledge)
	v1.Post("/knowledge/reload", h.ReloadKnowledge)
	v1.Get("/runs", h.Runs)
	v1.Get("/rejected", h.Rejected)
}

// Process triggers one batch run, typically from a scheduler.
func (h *Handler) Process(c *fiber.Ctx) error {
	summary, err := h.process.ProcessNewMessages(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(summary)
}

// pushEnvelope is the Pub/Sub push wrapper around the base64 payload.
type pushEnvelope struct {
	Message struct {
		Data      string `json:"data"`
		MessageID string `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// PubSubPush decodes a Gmail watch notification and runs the pipeline.
// Non-retryable problems are acknowledged with 200 so Pub/Sub stops
// redelivering them.
func (h *Handler) PubSubPush(c *fiber.Ctx) error {
	var envelope pushEnvelope
	if err := c.BodyParser(&envelope); err != nil {
		return apperr.BadRequest("malformed push envelope")
	}

	raw, err := base64.StdEncoding.DecodeString(envelope.Message.Data)
	if err != nil {
		return apperr.BadRequest("push data is not valid base64")
	}

	var notification in.PushNotification
	if err := json.Unmarshal(raw, &notification); err != nil {
		return apperr.BadRequest("push data is not valid JSON")
	}

	summary, err := h.notify.HandleNotification(c.Context(), notification)
	if err != nil {
		if ae, ok := err.(*apperr.AppError); ok && ae.Status < 500 {
			h.log.WithError(err).Warn("notification dropped")
			return c.JSON(fiber.Map{"status": "dropped"})
		}
		return err
	}
	return c.JSON(summary)
}

func (h *Handler) InvalidateKnowledge(c *fiber.Ctx) error {
	if err := h.knowledge.InvalidateKnowledge(c.Context()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "invalidated"})
}

func (h *Handler) ReloadKnowledge(c *fiber.Ctx) error {
	if err := h.knowledge.ReloadKnowledge(c.Context()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "reloaded"})
}

// Runs returns the most recent batch summaries.
func (h *Handler) Runs(c *fiber.Ctx) error {
	if h.ledger == nil {
		return apperr.NotFound("run history is not configured")
	}
	limit := c.QueryInt("limit", 20)
	runs, err := h.ledger.LastRuns(c.Context(), limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"runs": runs})
}

// Rejected returns recently archived replies that failed validation.
func (h *Handler) Rejected(c *fiber.Ctx) error {
	if h.archive == nil {
		return apperr.NotFound("rejected reply archive is not configured")
	}
	limit := c.QueryInt("limit", 20)
	rejected, err := h.archive.ListRecent(c.Context(), limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"rejected": rejected})
}
