package out

import (
	"context"
	"time"

	"parish_server/core/domain"
)

// Cache is a generic byte cache with TTL semantics.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// MemoryStore keeps per-thread conversational memory.
type MemoryStore interface {
	GetThreadMemory(ctx context.Context, threadID string) (*domain.ThreadMemory, error)
	SaveThreadMemory(ctx context.Context, threadID string, m *domain.ThreadMemory) error
}

// SenderStore tracks correspondent history across threads.
type SenderStore interface {
	GetSender(ctx context.Context, email string) (*domain.SenderRecord, error)
	SaveSender(ctx context.Context, r *domain.SenderRecord) error
}

// ReplyArchive stores rejected replies for operator review.
type ReplyArchive interface {
	ArchiveRejected(ctx context.Context, r *domain.RejectedReply) error
	ListRecent(ctx context.Context, limit int) ([]domain.RejectedReply, error)
}

// RunLedger records batch run summaries.
type RunLedger interface {
	RecordRun(ctx context.Context, s *domain.RunSummary) error
	LastRuns(ctx context.Context, limit int) ([]domain.RunSummary, error)
}
