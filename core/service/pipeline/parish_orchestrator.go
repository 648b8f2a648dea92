// Package pipeline drives one message through the full decision chain:
// fast filters, rule classifier, force-reply override, generation gate,
// context building, generation, validation and finally the send.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"parish_server/config"
	"parish_server/core/domain"
	"parish_server/core/port/in"
	"parish_server/core/port/out"
	"parish_server/core/service/booking"
	"parish_server/core/service/classify"
	"parish_server/core/service/filter"
	"parish_server/core/service/focus"
	"parish_server/core/service/format"
	"parish_server/core/service/gateway"
	"parish_server/core/service/knowledge"
	"parish_server/core/service/memory"
	"parish_server/core/service/prompt"
	"parish_server/core/service/schedule"
	"parish_server/core/service/territory"
	"parish_server/core/service/validate"
	"parish_server/pkg/apperr"
	"parish_server/pkg/logger"
)

// Deps aggregates everything the orchestrator needs. Booking, Archive and
// Ledger are optional; a nil value disables the feature.
type Deps struct {
	Mail       out.MailProvider
	Gateway    *gateway.Gateway
	Knowledge  *knowledge.Service
	Schedule   *schedule.Service
	Filter     *filter.Filter
	Classifier *classify.Classifier
	Validator  *validate.Validator
	Territory  *territory.Validator
	Composer   *prompt.Composer
	Memory     *memory.Service
	Booking    *booking.Service
	Archive    out.ReplyArchive
	Ledger     out.RunLedger
}

// reasonNoResponseGenerated marks a provider call that returned an empty
// body without erroring.
const reasonNoResponseGenerated = "no_response_generated"

type Orchestrator struct {
	cfg  *config.Config
	deps Deps
	log  *logger.Logger
}

var _ in.ProcessUseCase = (*Orchestrator)(nil)
var _ in.NotificationUseCase = (*Orchestrator)(nil)
var _ in.KnowledgeUseCase = (*Orchestrator)(nil)

func New(cfg *config.Config, deps Deps) *Orchestrator {
	return &Orchestrator{
		cfg:  cfg,
		deps: deps,
		log:  logger.WithField("component", "pipeline"),
	}
}

// ProcessNewMessages runs one batch. The suspension window is checked
// before any external call; per-message failures are recorded and never
// abort the rest of the batch.
func (o *Orchestrator) ProcessNewMessages(ctx context.Context) (*domain.RunSummary, error) {
	summary := &domain.RunSummary{
		RunID:     uuid.New().String(),
		Status:    "completed",
		DryRun:    o.cfg.Mail.DryRun,
		StartedAt: time.Now(),
	}
	log := o.log.WithField("run_id", summary.RunID)

	if o.deps.Schedule.IsSuspended() {
		summary.Status = "suspended"
		summary.FinishedAt = time.Now()
		return summary, nil
	}

	kb, err := o.deps.Knowledge.Get(ctx)
	if err != nil {
		return nil, err
	}

	msgs, err := o.deps.Mail.FetchUnprocessed(ctx, o.cfg.Mail.MaxEmailsPerRun)
	if err != nil {
		return nil, apperr.ProviderError("mail", err)
	}

	for i := range msgs {
		outcome := o.processOne(ctx, &msgs[i], kb)
		summary.Outcomes = append(summary.Outcomes, outcome)
		summary.Processed++

		switch outcome.State {
		case domain.StateSent:
			summary.Replied++
		case domain.StateSkipped, domain.StateFiltered, domain.StateNoReply:
			summary.Filtered++
		case domain.StateValidationFailed:
			summary.ValidationFailed++
		case domain.StateErrored:
			summary.Errors++
		case domain.StateValidated:
			if summary.DryRun {
				summary.DryRunCount++
			}
		}
	}

	summary.FinishedAt = time.Now()
	if o.deps.Ledger != nil {
		if err := o.deps.Ledger.RecordRun(ctx, summary); err != nil {
			log.WithError(err).Warn("failed to record run summary")
		}
	}
	return summary, nil
}

func (o *Orchestrator) processOne(ctx context.Context, msg *domain.EmailMessage, kb *domain.KnowledgeBase) (outcome domain.ThreadOutcome) {
	outcome = domain.ThreadOutcome{MessageID: msg.ID, ThreadID: msg.ThreadID, State: domain.StateFetched}
	msg.ParseSender()

	log := o.log.WithFields(map[string]interface{}{
		"thread_id": msg.ThreadID,
		"sender":    msg.SenderEmail,
	})

	// the label is applied whatever happens, so the message is never
	// fetched twice
	defer func() {
		label := o.cfg.Mail.LabelName
		switch outcome.State {
		case domain.StateErrored:
			label = o.cfg.Mail.ErrorLabelName
		case domain.StateValidationFailed:
			label = o.cfg.Mail.ValidationFailedLabel
		}
		if err := o.deps.Mail.MarkProcessed(ctx, msg.ID, label); err != nil {
			log.WithError(err).Error("failed to label message")
		}
	}()

	if d := o.deps.Filter.Check(msg, kb); d.Ignore {
		if d.Reason == filter.ReasonSelfSent {
			outcome.State = domain.StateSkipped
		} else {
			outcome.State = domain.StateFiltered
		}
		outcome.Reason = d.Reason
		return outcome
	}

	cls := o.deps.Classifier.Classify(msg)
	outcome.State = domain.StateClassified

	forced := false
	if !cls.ShouldReply {
		outcome.State = domain.StateForceReplyCheck
		if o.deps.Classifier.ForceReply(msg) {
			forced = true
			cls.ShouldReply = true
			cls.Reason = domain.ReasonForceReply
			log.Info("force-reply keyword overrides no-reply classification")
		} else {
			outcome.State = domain.StateFiltered
			outcome.Reason = string(cls.Reason)
			return outcome
		}
	}

	clean := classify.CleanBody(msg.Body)
	lang, langConf := classify.DetectLanguage(msg.Subject + " " + clean)

	// a forced reply skips the gate: the correction must go out
	if !forced {
		gate := o.deps.Gateway.GateCheck(ctx, msg, clean, lang)
		outcome.State = domain.StateGateChecked
		if !gate.ShouldRespond {
			outcome.State = domain.StateFiltered
			outcome.Reason = string(domain.ReasonGateNoResponse)
			return outcome
		}
		// the gate language wins over the heuristic
		if !gate.Failsafe && gate.Language != "" {
			lang, langConf = gate.Language, 0.9
		}
	}

	var mem *domain.ThreadMemory
	var conversation string
	if msg.IsReply() {
		mem = o.deps.Memory.Recall(ctx, msg.ThreadID)
		if turns, err := o.deps.Mail.FetchThread(ctx, msg.ThreadID); err != nil {
			log.WithError(err).Warn("thread history unavailable")
		} else if history := renderHistory(turns); history != "" {
			if len(history) > 500 {
				history = o.deps.Gateway.Summarize(ctx, history)
			}
			conversation = history
		}
	}

	salutation := domain.SalutationFull
	switch {
	case msg.IsReply():
		salutation = domain.SalutationContinuity
	case mem != nil:
		salutation = domain.SalutationSoft
	}

	text := msg.Subject + " " + clean
	terr := o.deps.Territory.Verify(text)
	req := classify.ScoreRequestType(msg.Subject, clean)
	kbText := knowledge.ComposeContext(kb, req)
	now := o.deps.Schedule.Now()
	dynamic := o.deps.Schedule.DynamicContext(now)

	signals := focus.Signals(text, kbText, lang, langConf, cls, req, msg.IsReply(), terr, mem, salutation)
	pf := focus.Derive(signals)
	outcome.State = domain.StateContextBuilt

	promptText := o.deps.Composer.Compose(prompt.Input{
		Message:      msg,
		CleanBody:    clean,
		Language:     lang,
		Focus:        pf,
		Request:      req,
		Knowledge:    kbText,
		Dynamic:      dynamic,
		Conversation: conversation,
		Memory:       mem,
		SenderInfo:   o.deps.Memory.SenderContext(ctx, msg.SenderEmail),
		Territory:    terr,
		Greeting:     o.deps.Schedule.GreetingFor(now, lang, msg.SenderName),
		Salutation:   salutation,
	})

	reply, err := o.deps.Gateway.Generate(ctx, promptText)
	if err != nil {
		outcome.State = domain.StateErrored
		outcome.Err = err
		log.WithError(err).Error("generation failed")
		return outcome
	}
	if strings.TrimSpace(reply) == "" {
		outcome.State = domain.StateErrored
		outcome.Reason = reasonNoResponseGenerated
		outcome.Err = apperr.ErrEmptyGeneration
		return outcome
	}
	outcome.State = domain.StateGenerated

	if strings.Contains(strings.ToUpper(reply), "NO_REPLY") {
		outcome.State = domain.StateNoReply
		outcome.Reason = string(domain.ReasonGateNoReply)
		log.Info("model declined to reply")
		return outcome
	}

	reply = knowledge.ApplyReplacements(reply, kb.Replacements)

	validation := o.deps.Validator.Validate(reply, lang, msg.Body+"\n"+kbText+"\n"+dynamic)
	if !validation.IsValid {
		outcome.State = domain.StateValidationFailed
		outcome.Reason = strings.Join(validation.Errors, "; ")
		o.archiveRejected(ctx, msg, reply, validation)
		return outcome
	}
	outcome.State = domain.StateValidated

	o.handleBooking(ctx, msg, kbText, clean)

	if o.cfg.Mail.DryRun {
		outcome.Reason = "dry_run"
		log.Info("dry run, reply not sent")
		return outcome
	}

	plain := format.Strip(reply)
	html := format.ToHTML(reply)
	if err := o.deps.Mail.SendReply(ctx, *msg, plain, html); err != nil {
		outcome.State = domain.StateErrored
		outcome.Err = apperr.ProviderError("mail", err)
		return outcome
	}
	outcome.State = domain.StateSent

	topic := "informazioni generali"
	if cls.Category != domain.CategoryNone {
		topic = string(cls.Category)
	}
	tone := "standard"
	if req.Type == domain.RequestPastoral || req.NeedsDiscernment {
		tone = "empatico"
	}
	o.deps.Memory.Remember(ctx, msg.ThreadID, lang, tone, cls.Category, []string{fmt.Sprintf("risposta su %s", topic)})
	o.deps.Memory.TrackSender(ctx, msg.SenderEmail, msg.SenderName, cls.Category)
	return outcome
}

func (o *Orchestrator) archiveRejected(ctx context.Context, msg *domain.EmailMessage, reply string, v domain.ValidationResult) {
	if o.deps.Archive == nil {
		return
	}
	r := &domain.RejectedReply{
		ThreadID:   msg.ThreadID,
		MessageID:  msg.ID,
		Sender:     msg.SenderEmail,
		Subject:    msg.Subject,
		Reply:      reply,
		Score:      v.Score,
		Errors:     v.Errors,
		Warnings:   v.Warnings,
		RejectedAt: time.Now(),
	}
	if err := o.deps.Archive.ArchiveRejected(ctx, r); err != nil {
		o.log.WithError(err).Warn("failed to archive rejected reply")
	}
}

// handleBooking registers the sender for a seat-capped event mentioned in
// the message. Best effort: booking failures never block the reply.
func (o *Orchestrator) handleBooking(ctx context.Context, msg *domain.EmailMessage, kbText, clean string) {
	if o.deps.Booking == nil {
		return
	}
	lowerMsg := strings.ToLower(msg.Subject + " " + clean)
	for _, ev := range booking.DetectLimitedEvents(kbText) {
		if ev.Name == "" || !strings.Contains(lowerMsg, strings.ToLower(ev.Name)) {
			continue
		}
		date := booking.ExtractRequestedDate(clean, o.deps.Schedule.Now())
		status, err := o.deps.Booking.RequestBooking(ctx, ev, msg.SenderEmail, msg.SenderName, date)
		if err != nil {
			o.log.WithError(err).Warn("event booking failed")
			continue
		}
		o.log.WithFields(map[string]interface{}{"event": ev.Name, "status": status}).Info("event booking handled")
	}
}

func renderHistory(turns []domain.ConversationTurn) string {
	var parts []string
	for _, t := range turns {
		who := "Segreteria"
		if !t.FromSecretary {
			who = fmt.Sprintf("Utente (%s)", t.SenderName)
		}
		parts = append(parts, who+": "+strings.TrimSpace(t.Body))
	}
	return strings.Join(parts, "\n---\n")
}

// HandleNotification reacts to a mailbox push notification. Foreign
// addresses are rejected; during suspension nothing is processed.
func (o *Orchestrator) HandleNotification(ctx context.Context, n in.PushNotification) (*domain.RunSummary, error) {
	if !strings.EqualFold(n.EmailAddress, o.cfg.Auth.MonitoredEmail) {
		return nil, apperr.BadRequest("notification for an unmonitored address")
	}
	return o.ProcessNewMessages(ctx)
}

func (o *Orchestrator) InvalidateKnowledge(context.Context) error {
	o.deps.Knowledge.Invalidate()
	return nil
}

func (o *Orchestrator) ReloadKnowledge(ctx context.Context) error {
	return o.deps.Knowledge.ForceReload(ctx)
}
