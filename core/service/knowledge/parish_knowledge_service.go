// Package knowledge serves the instruction spreadsheet through a
// read-through cache and assembles the prompt-facing knowledge text.
package knowledge

import (
	"context"
	"strings"
	"sync"
	"time"

	"parish_server/core/domain"
	"parish_server/core/port/out"
	"parish_server/pkg/apperr"
	"parish_server/pkg/logger"
)

type Service struct {
	source out.KnowledgeSource
	ttl    time.Duration

	mu       sync.Mutex
	cached   *domain.KnowledgeBase
	loadedAt time.Time
	nowFn    func() time.Time

	log *logger.Logger
}

func NewService(source out.KnowledgeSource, ttl time.Duration) *Service {
	return &Service{
		source: source,
		ttl:    ttl,
		nowFn:  time.Now,
		log:    logger.WithField("component", "knowledge"),
	}
}

// Get returns the knowledge base, loading it from the source when the
// cached copy is missing or expired. A failed refresh falls back to the
// stale copy instead of failing the caller.
func (s *Service) Get(ctx context.Context) (*domain.KnowledgeBase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil && s.nowFn().Sub(s.loadedAt) < s.ttl {
		return s.cached, nil
	}

	kb, err := s.source.LoadKnowledgeBase(ctx)
	if err != nil {
		if s.cached != nil {
			s.log.WithError(err).Warn("knowledge refresh failed, serving stale copy")
			return s.cached, nil
		}
		return nil, apperr.ErrKnowledgeUnavailable.WithError(err)
	}

	kb.LoadedAt = s.nowFn()
	s.cached = kb
	s.loadedAt = kb.LoadedAt
	return kb, nil
}

// Invalidate drops the cached copy; the next Get loads fresh data.
func (s *Service) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = nil
}

// ForceReload loads fresh data immediately, replacing the cache only on
// success.
func (s *Service) ForceReload(ctx context.Context) error {
	kb, err := s.source.LoadKnowledgeBase(ctx)
	if err != nil {
		return apperr.ErrKnowledgeUnavailable.WithError(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kb.LoadedAt = s.nowFn()
	s.cached = kb
	s.loadedAt = kb.LoadedAt
	return nil
}

// ComposeContext renders the prompt-facing knowledge text. The lite
// instruction layer is always present; the core layer joins when the
// request needs discernment and the doctrine layer when doctrine is
// explicitly requested. The layers steer the model and are never shown
// to the user.
func ComposeContext(kb *domain.KnowledgeBase, req domain.RequestTypeResult) string {
	var b strings.Builder

	if kb.CoreLite != "" {
		b.WriteString(kb.CoreLite)
		b.WriteString("\n")
	}
	if req.NeedsDiscernment && kb.Core != "" {
		b.WriteString(kb.Core)
		b.WriteString("\n")
	}
	if req.NeedsDoctrine && kb.Doctrine != "" {
		b.WriteString(kb.Doctrine)
		b.WriteString("\n")
	}

	for _, e := range kb.Entries {
		b.WriteString("\n--- Informazione ---\n")
		b.WriteString("Categoria: " + e.Category + "\n")
		b.WriteString("Argomento: " + e.Topic + "\n")
		b.WriteString("Dettagli: " + e.Answer + "\n")
	}
	return strings.TrimSpace(b.String())
}

// ApplyReplacements rewrites the generated reply with the configured
// case-insensitive substitutions.
func ApplyReplacements(text string, replacements map[string]string) string {
	for from, to := range replacements {
		text = replaceInsensitive(text, from, to)
	}
	return text
}

func replaceInsensitive(text, from, to string) string {
	if from == "" {
		return text
	}
	lower := strings.ToLower(text)
	needle := strings.ToLower(from)
	var b strings.Builder
	for {
		i := strings.Index(lower, needle)
		if i < 0 {
			b.WriteString(text)
			return b.String()
		}
		b.WriteString(text[:i])
		b.WriteString(to)
		text = text[i+len(needle):]
		lower = lower[i+len(needle):]
	}
}
