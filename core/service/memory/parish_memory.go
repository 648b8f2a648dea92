// Package memory keeps what the responder already told a thread and what
// it knows about a correspondent.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"parish_server/core/domain"
	"parish_server/core/port/out"
	"parish_server/pkg/logger"
)

type Service struct {
	threads out.MemoryStore
	senders out.SenderStore
	nowFn   func() time.Time
	log     *logger.Logger
}

func NewService(threads out.MemoryStore, senders out.SenderStore) *Service {
	return &Service{
		threads: threads,
		senders: senders,
		nowFn:   time.Now,
		log:     logger.WithField("component", "memory"),
	}
}

// Recall returns the thread memory, or nil when the thread is new. Store
// failures degrade to "no memory" so a cache outage never blocks a reply.
func (s *Service) Recall(ctx context.Context, threadID string) *domain.ThreadMemory {
	m, err := s.threads.GetThreadMemory(ctx, threadID)
	if err != nil {
		s.log.WithError(err).WithField("thread_id", threadID).Warn("thread memory unavailable")
		return nil
	}
	return m
}

// Remember merges the outcome of one reply into the thread memory.
func (s *Service) Remember(ctx context.Context, threadID, language, tone string, category domain.Category, providedInfo []string) {
	m := s.Recall(ctx, threadID)
	if m == nil {
		m = &domain.ThreadMemory{Tone: "standard"}
	}
	if language != "" {
		m.Language = language
	}
	if tone != "" {
		m.Tone = tone
	}
	if category != domain.CategoryNone {
		m.Category = string(category)
	}
	m.ProvidedInfo = mergeUnique(m.ProvidedInfo, providedInfo)
	m.MessageCount++
	m.LastUpdated = s.nowFn()

	if err := s.threads.SaveThreadMemory(ctx, threadID, m); err != nil {
		s.log.WithError(err).WithField("thread_id", threadID).Warn("failed to persist thread memory")
	}
}

// TrackSender counts one more interaction with a correspondent.
func (s *Service) TrackSender(ctx context.Context, email, name string, topic domain.Category) {
	if email == "" {
		return
	}
	r, err := s.senders.GetSender(ctx, email)
	if err != nil {
		s.log.WithError(err).Warn("sender record unavailable")
		return
	}
	if r == nil {
		r = &domain.SenderRecord{Email: email, Topics: make(map[string]int)}
	}
	if r.Topics == nil {
		r.Topics = make(map[string]int)
	}
	if name != "" {
		r.Name = name
	}
	if topic != domain.CategoryNone {
		r.Topics[string(topic)]++
	}
	r.Interactions++
	r.LastSeen = s.nowFn()

	if err := s.senders.SaveSender(ctx, r); err != nil {
		s.log.WithError(err).Warn("failed to persist sender record")
	}
}

// SenderContext renders a prompt block for a known correspondent. One-off
// senders produce nothing; the block appears from the second interaction
// on.
func (s *Service) SenderContext(ctx context.Context, email string) string {
	r, err := s.senders.GetSender(ctx, email)
	if err != nil || r == nil || r.Interactions < 2 {
		return ""
	}

	topics := topTopics(r.Topics, 3)
	var b strings.Builder
	fmt.Fprintf(&b, "MITTENTE CONOSCIUTO: %s ha già scritto %d volte.", r.Name, r.Interactions)
	if len(topics) > 0 {
		b.WriteString(" Argomenti ricorrenti: " + strings.Join(topics, ", ") + ".")
	}
	return b.String()
}

func topTopics(topics map[string]int, n int) []string {
	type kv struct {
		topic string
		count int
	}
	all := make([]kv, 0, len(topics))
	for t, c := range topics {
		all = append(all, kv{t, c})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].count != all[j].count {
			return all[i].count > all[j].count
		}
		return all[i].topic < all[j].topic
	})
	if len(all) > n {
		all = all[:n]
	}
	out := make([]string, len(all))
	for i, kv := range all {
		out[i] = kv.topic
	}
	return out
}

func mergeUnique(existing, extra []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, e := range existing {
		seen[e] = true
	}
	for _, e := range extra {
		if e != "" && !seen[e] {
			existing = append(existing, e)
			seen[e] = true
		}
	}
	return existing
}
