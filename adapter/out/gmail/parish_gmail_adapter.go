// Package gmail implements the mailbox adapter on the Gmail API using a
// service account with domain-wide delegation.
package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"parish_server/config"
	"parish_server/core/domain"
	"parish_server/core/port/out"
	"parish_server/pkg/apperr"
	"parish_server/pkg/logger"
)

const aiFooter = "Messaggio generato con l'assistenza dell'IA."

// Adapter implements out.MailProvider against the mailbox of the
// impersonated secretary account.
type Adapter struct {
	cfg config.MailConfig
	svc *gmail.Service
	cb  *gobreaker.CircuitBreaker
	log *logger.Logger

	labelMu sync.Mutex
	labels  map[string]string
}

var _ out.MailProvider = (*Adapter)(nil)

func New(ctx context.Context, cfg config.MailConfig) (*Adapter, error) {
	creds, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, apperr.ConfigError(fmt.Sprintf("cannot read credentials file %s", cfg.CredentialsFile)).WithError(err)
	}

	jwtCfg, err := google.JWTConfigFromJSON(creds,
		gmail.GmailReadonlyScope,
		gmail.GmailSendScope,
		gmail.GmailModifyScope,
		gmail.GmailLabelsScope,
	)
	if err != nil {
		return nil, apperr.ConfigError("invalid service account credentials").WithError(err)
	}
	jwtCfg.Subject = cfg.ImpersonateEmail

	svc, err := gmail.NewService(ctx, option.WithTokenSource(jwtCfg.TokenSource(ctx)))
	if err != nil {
		return nil, apperr.ProviderError("gmail", err)
	}

	log := logger.WithField("component", "gmail")
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "gmail-api",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures > 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnf("circuit breaker %s: %s -> %s", name, from.String(), to.String())
		},
	})

	return &Adapter{
		cfg:    cfg,
		svc:    svc,
		cb:     cb,
		log:    log,
		labels: map[string]string{},
	}, nil
}

// FetchUnprocessed lists unread messages that do not yet carry the
// processed label.
func (a *Adapter) FetchUnprocessed(ctx context.Context, max int) ([]domain.EmailMessage, error) {
	query := fmt.Sprintf("is:unread -label:%s", a.cfg.LabelName)

	var listed *gmail.ListMessagesResponse
	err := a.execute(func() error {
		var err error
		listed, err = a.svc.Users.Messages.List("me").
			Q(query).MaxResults(int64(max)).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, a.wrapError(err, "failed to list messages")
	}

	msgs := make([]domain.EmailMessage, 0, len(listed.Messages))
	for _, ref := range listed.Messages {
		full, err := a.svc.Users.Messages.Get("me", ref.Id).Format("full").Context(ctx).Do()
		if err != nil {
			a.log.WithError(err).Warnf("skipping unreadable message %s", ref.Id)
			continue
		}
		msgs = append(msgs, a.toMessage(full))
	}
	return msgs, nil
}

// FetchThread returns the conversation oldest first, marking which turns
// came from the secretary mailbox.
func (a *Adapter) FetchThread(ctx context.Context, threadID string) ([]domain.ConversationTurn, error) {
	var thread *gmail.Thread
	err := a.execute(func() error {
		var err error
		thread, err = a.svc.Users.Threads.Get("me", threadID).Format("full").Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, a.wrapError(err, "failed to get thread")
	}

	turns := make([]domain.ConversationTurn, 0, len(thread.Messages))
	for _, m := range thread.Messages {
		em := a.toMessage(m)
		em.ParseSender()
		turns = append(turns, domain.ConversationTurn{
			FromSecretary: em.SenderEmail == strings.ToLower(a.cfg.ImpersonateEmail),
			SenderName:    em.SenderName,
			Body:          em.Body,
		})
	}
	return turns, nil
}

// SendReply sends a threaded multipart reply. The HTML part wraps the
// generated body with the house styling, the quoted original and the AI
// disclosure footer.
func (a *Adapter) SendReply(ctx context.Context, original domain.EmailMessage, plainBody, htmlBody string) error {
	subject := original.Subject
	if !strings.HasPrefix(strings.ToLower(subject), "re:") {
		subject = "Re: " + subject
	}

	raw := a.buildRawReply(original, subject, plainBody+"\n\n"+aiFooter, a.wrapHTML(htmlBody, original.Body))
	msg := &gmail.Message{
		Raw:      base64.URLEncoding.EncodeToString([]byte(raw)),
		ThreadId: original.ThreadID,
	}

	err := a.execute(func() error {
		_, err := a.svc.Users.Messages.Send("me", msg).Context(ctx).Do()
		return err
	})
	if err != nil {
		return a.wrapError(err, "failed to send reply")
	}
	a.log.WithField("thread_id", original.ThreadID).Info("reply sent")
	return nil
}

// MarkProcessed applies the label, creating it on first use, and removes
// UNREAD so the message leaves the fetch query either way.
func (a *Adapter) MarkProcessed(ctx context.Context, messageID, label string) error {
	labelID, err := a.getOrCreateLabel(ctx, label)
	if err != nil {
		return err
	}

	mod := &gmail.ModifyMessageRequest{
		AddLabelIds:    []string{labelID},
		RemoveLabelIds: []string{"UNREAD"},
	}
	err = a.execute(func() error {
		_, err := a.svc.Users.Messages.Modify("me", messageID, mod).Context(ctx).Do()
		return err
	})
	if err != nil {
		return a.wrapError(err, "failed to label message")
	}
	return nil
}

// SendNotification sends a standalone plain-text message from the
// secretary mailbox, used for staff recaps.
func (a *Adapter) SendNotification(ctx context.Context, to, subject, body string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", a.cfg.ImpersonateEmail)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")

	msg := &gmail.Message{Raw: base64.URLEncoding.EncodeToString([]byte(b.String()))}
	err := a.execute(func() error {
		_, err := a.svc.Users.Messages.Send("me", msg).Context(ctx).Do()
		return err
	})
	if err != nil {
		return a.wrapError(err, "failed to send notification")
	}
	return nil
}

// RenewWatch re-registers the mailbox watch on the configured Pub/Sub
// topic. Gmail expires watches after seven days, so callers renew on a
// shorter cycle. A no-op when no topic is configured.
func (a *Adapter) RenewWatch(ctx context.Context) error {
	if a.cfg.WatchTopic == "" {
		return nil
	}

	req := &gmail.WatchRequest{
		TopicName:         a.cfg.WatchTopic,
		LabelIds:          []string{"INBOX"},
		LabelFilterAction: "include",
	}
	var resp *gmail.WatchResponse
	err := a.execute(func() error {
		var err error
		resp, err = a.svc.Users.Watch("me", req).Context(ctx).Do()
		return err
	})
	if err != nil {
		return a.wrapError(err, "failed to renew mailbox watch")
	}
	a.log.WithFields(map[string]interface{}{
		"history_id": resp.HistoryId,
		"expiration": resp.Expiration,
	}).Info("mailbox watch renewed")
	return nil
}

func (a *Adapter) getOrCreateLabel(ctx context.Context, name string) (string, error) {
	a.labelMu.Lock()
	defer a.labelMu.Unlock()
	if id, ok := a.labels[name]; ok {
		return id, nil
	}

	listed, err := a.svc.Users.Labels.List("me").Context(ctx).Do()
	if err != nil {
		return "", a.wrapError(err, "failed to list labels")
	}
	for _, l := range listed.Labels {
		if l.Name == name {
			a.labels[name] = l.Id
			return l.Id, nil
		}
	}

	created, err := a.svc.Users.Labels.Create("me", &gmail.Label{
		Name:                  name,
		LabelListVisibility:   "labelShow",
		MessageListVisibility: "show",
	}).Context(ctx).Do()
	if err != nil {
		return "", a.wrapError(err, "failed to create label")
	}
	a.labels[name] = created.Id
	return created.Id, nil
}

func (a *Adapter) toMessage(m *gmail.Message) domain.EmailMessage {
	em := domain.EmailMessage{
		ID:       m.Id,
		ThreadID: m.ThreadId,
	}
	if m.Payload == nil {
		return em
	}
	for _, h := range m.Payload.Headers {
		switch h.Name {
		case "Subject":
			em.Subject = h.Value
		case "From":
			em.From = h.Value
		case "Date":
			em.Date = h.Value
		case "Message-ID", "Message-Id":
			em.MessageID = h.Value
		}
	}
	em.Body = extractBody(m.Payload)
	return em
}

// extractBody walks the MIME tree and prefers text/plain over text/html.
func extractBody(part *gmail.MessagePart) string {
	plain, html := extractParts(part)
	if plain != "" {
		return plain
	}
	return html
}

func extractParts(part *gmail.MessagePart) (plain, html string) {
	if part == nil {
		return "", ""
	}
	if part.Body != nil && part.Body.Data != "" {
		data := decodeBody(part.Body.Data)
		switch part.MimeType {
		case "text/plain":
			plain = data
		case "text/html":
			html = data
		}
	}
	for _, p := range part.Parts {
		cp, ch := extractParts(p)
		if plain == "" {
			plain = cp
		}
		if html == "" {
			html = ch
		}
	}
	return plain, html
}

// decodeBody tolerates payloads with missing base64 padding.
func decodeBody(data string) string {
	if b, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(b)
	}
	if b, err := base64.RawURLEncoding.DecodeString(data); err == nil {
		return string(b)
	}
	return ""
}

func (a *Adapter) buildRawReply(original domain.EmailMessage, subject, plain, html string) string {
	boundary := fmt.Sprintf("parish-%d", time.Now().UnixNano())
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", a.cfg.ImpersonateEmail)
	fmt.Fprintf(&b, "To: %s\r\n", original.SenderEmail)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	if original.MessageID != "" {
		fmt.Fprintf(&b, "In-Reply-To: %s\r\n", original.MessageID)
		fmt.Fprintf(&b, "References: %s\r\n", original.MessageID)
	}
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(plain)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(html)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return b.String()
}

func (a *Adapter) wrapHTML(body, quotedOriginal string) string {
	var b strings.Builder
	b.WriteString(`<div style="font-family: Arial, sans-serif; font-size: 20px; color: #351c75;">`)
	b.WriteString(body)
	b.WriteString(`<hr>`)
	b.WriteString(`<blockquote style="border-left: 2px solid #ccc; margin-left: 8px; padding-left: 8px; color: #666;">`)
	b.WriteString(strings.ReplaceAll(quotedOriginal, "\n", "<br>"))
	b.WriteString(`</blockquote>`)
	fmt.Fprintf(&b, `<p style="font-size: 12px; color: #999;">%s</p>`, aiFooter)
	b.WriteString(`</div>`)
	return b.String()
}

func (a *Adapter) execute(fn func() error) error {
	_, err := a.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return err
}

func (a *Adapter) wrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return apperr.ProviderError("gmail", err).WithDetail("circuit", "open")
	}
	wrapped := apperr.ProviderError("gmail", fmt.Errorf("%s: %w", msg, err))
	if apiErr, ok := err.(*googleapi.Error); ok {
		wrapped = wrapped.WithDetail("status_code", apiErr.Code)
	}
	return wrapped
}
