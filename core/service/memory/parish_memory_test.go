package memory

import (
	"context"
	"errors"
	"strings"
	"testing"

	"parish_server/core/domain"
)

type fakeThreadStore struct {
	data map[string]*domain.ThreadMemory
	err  error
}

func (f *fakeThreadStore) GetThreadMemory(_ context.Context, id string) (*domain.ThreadMemory, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.data[id], nil
}

func (f *fakeThreadStore) SaveThreadMemory(_ context.Context, id string, m *domain.ThreadMemory) error {
	if f.err != nil {
		return f.err
	}
	f.data[id] = m
	return nil
}

type fakeSenderStore struct {
	data map[string]*domain.SenderRecord
	err  error
}

func (f *fakeSenderStore) GetSender(_ context.Context, email string) (*domain.SenderRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.data[email], nil
}

func (f *fakeSenderStore) SaveSender(_ context.Context, r *domain.SenderRecord) error {
	if f.err != nil {
		return f.err
	}
	f.data[r.Email] = r
	return nil
}

func newFakes() (*fakeThreadStore, *fakeSenderStore, *Service) {
	ts := &fakeThreadStore{data: make(map[string]*domain.ThreadMemory)}
	ss := &fakeSenderStore{data: make(map[string]*domain.SenderRecord)}
	return ts, ss, NewService(ts, ss)
}

func TestRememberMergesState(t *testing.T) {
	ts, _, s := newFakes()
	ctx := context.Background()

	s.Remember(ctx, "t1", "it", "empatico", domain.CategorySacrament, []string{"orari battesimi"})
	s.Remember(ctx, "t1", "", "", domain.CategoryNone, []string{"orari battesimi", "documenti richiesti"})

	m := ts.data["t1"]
	if m == nil {
		t.Fatal("memory not saved")
	}
	if m.MessageCount != 2 {
		t.Errorf("MessageCount = %d, want 2", m.MessageCount)
	}
	if m.Language != "it" || m.Category != "sacrament" {
		t.Errorf("language/category not preserved: %+v", m)
	}
	if m.Tone != "empatico" {
		t.Errorf("Tone = %q, want the merged empatico tone", m.Tone)
	}
	if len(m.ProvidedInfo) != 2 {
		t.Errorf("ProvidedInfo = %v, want deduplicated pair", m.ProvidedInfo)
	}
}

func TestRememberDefaultsTone(t *testing.T) {
	ts, _, s := newFakes()
	ctx := context.Background()

	s.Remember(ctx, "t2", "it", "", domain.CategoryInformation, nil)
	if m := ts.data["t2"]; m == nil || m.Tone != "standard" {
		t.Errorf("new memory must start with the standard tone, got %+v", m)
	}
}

func TestRecallDegradesOnStoreFailure(t *testing.T) {
	ts, _, s := newFakes()
	ts.err = errors.New("redis down")

	if m := s.Recall(context.Background(), "t1"); m != nil {
		t.Errorf("expected nil memory on store failure, got %+v", m)
	}
}

func TestSenderContext(t *testing.T) {
	_, ss, s := newFakes()
	ctx := context.Background()

	s.TrackSender(ctx, "mario@example.com", "Mario", domain.CategorySacrament)
	if got := s.SenderContext(ctx, "mario@example.com"); got != "" {
		t.Errorf("single interaction must produce no context, got %q", got)
	}

	s.TrackSender(ctx, "mario@example.com", "Mario", domain.CategorySacrament)
	s.TrackSender(ctx, "mario@example.com", "Mario", domain.CategoryInformation)

	got := s.SenderContext(ctx, "mario@example.com")
	if !strings.Contains(got, "3 volte") {
		t.Errorf("interaction count missing from %q", got)
	}
	if !strings.Contains(got, "sacrament") {
		t.Errorf("recurring topic missing from %q", got)
	}

	if r := ss.data["mario@example.com"]; r.Topics["sacrament"] != 2 {
		t.Errorf("topic count = %d, want 2", r.Topics["sacrament"])
	}
}
