package knowledge

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"parish_server/core/domain"
)

type fakeSource struct {
	kb    *domain.KnowledgeBase
	err   error
	loads int
}

func (f *fakeSource) LoadKnowledgeBase(context.Context) (*domain.KnowledgeBase, error) {
	f.loads++
	if f.err != nil {
		return nil, f.err
	}
	kb := *f.kb
	return &kb, nil
}

func testKB() *domain.KnowledgeBase {
	return &domain.KnowledgeBase{
		Entries: []domain.KnowledgeEntry{
			{Category: "Sacramenti", Topic: "Battesimo", Answer: "rivolgersi in segreteria"},
		},
		CoreLite: "LIVELLO LITE",
		Core:     "LIVELLO CORE",
		Doctrine: "LIVELLO DOTTRINA",
	}
}

func TestGetCachesWithinTTL(t *testing.T) {
	src := &fakeSource{kb: testKB()}
	s := NewService(src, time.Hour)

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s.nowFn = func() time.Time { return now }

	if _, err := s.Get(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(context.Background()); err != nil {
		t.Fatal(err)
	}
	if src.loads != 1 {
		t.Errorf("loads = %d, want 1 (second Get served from cache)", src.loads)
	}

	now = now.Add(2 * time.Hour)
	if _, err := s.Get(context.Background()); err != nil {
		t.Fatal(err)
	}
	if src.loads != 2 {
		t.Errorf("loads = %d, want 2 after TTL expiry", src.loads)
	}
}

func TestInvalidateForcesNextLoad(t *testing.T) {
	src := &fakeSource{kb: testKB()}
	s := NewService(src, time.Hour)

	if _, err := s.Get(context.Background()); err != nil {
		t.Fatal(err)
	}
	s.Invalidate()
	if _, err := s.Get(context.Background()); err != nil {
		t.Fatal(err)
	}
	if src.loads != 2 {
		t.Errorf("loads = %d, want 2 after Invalidate", src.loads)
	}
}

func TestGetServesStaleOnRefreshFailure(t *testing.T) {
	src := &fakeSource{kb: testKB()}
	s := NewService(src, time.Hour)

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s.nowFn = func() time.Time { return now }

	if _, err := s.Get(context.Background()); err != nil {
		t.Fatal(err)
	}

	now = now.Add(2 * time.Hour)
	src.err = errors.New("sheet unavailable")
	kb, err := s.Get(context.Background())
	if err != nil {
		t.Fatalf("stale copy expected, got error %v", err)
	}
	if len(kb.Entries) != 1 {
		t.Error("stale copy lost its entries")
	}
}

func TestGetFailsWithoutAnyCopy(t *testing.T) {
	src := &fakeSource{err: errors.New("sheet unavailable")}
	s := NewService(src, time.Hour)

	if _, err := s.Get(context.Background()); err == nil {
		t.Fatal("expected error with no cached copy")
	}
}

func TestForceReload(t *testing.T) {
	src := &fakeSource{kb: testKB()}
	s := NewService(src, time.Hour)

	if err := s.ForceReload(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(context.Background()); err != nil {
		t.Fatal(err)
	}
	if src.loads != 1 {
		t.Errorf("loads = %d, want 1 (Get after ForceReload hits the cache)", src.loads)
	}

	src.err = errors.New("down")
	if err := s.ForceReload(context.Background()); err == nil {
		t.Error("ForceReload must surface the load error")
	}
	// failed reload keeps the previous copy
	if kb, err := s.Get(context.Background()); err != nil || kb == nil {
		t.Errorf("previous copy lost after failed ForceReload: %v", err)
	}
}

func TestComposeContextLayers(t *testing.T) {
	kb := testKB()

	tests := []struct {
		name         string
		req          domain.RequestTypeResult
		wantCore     bool
		wantDoctrine bool
	}{
		{"technical gets lite only", domain.RequestTypeResult{Type: domain.RequestTechnical}, false, false},
		{"discernment adds core", domain.RequestTypeResult{Type: domain.RequestPastoral, NeedsDiscernment: true}, true, false},
		{"doctrine adds doctrine layer", domain.RequestTypeResult{Type: domain.RequestMixed, NeedsDiscernment: true, NeedsDoctrine: true}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComposeContext(kb, tt.req)
			if !strings.Contains(got, "LIVELLO LITE") {
				t.Error("lite layer must always be present")
			}
			if strings.Contains(got, "LIVELLO CORE") != tt.wantCore {
				t.Errorf("core layer presence = %v, want %v", !tt.wantCore, tt.wantCore)
			}
			if strings.Contains(got, "LIVELLO DOTTRINA") != tt.wantDoctrine {
				t.Errorf("doctrine layer presence = %v, want %v", !tt.wantDoctrine, tt.wantDoctrine)
			}
			if !strings.Contains(got, "Argomento: Battesimo") {
				t.Error("entries missing from composed context")
			}
		})
	}
}

func TestApplyReplacements(t *testing.T) {
	got := ApplyReplacements("Il Parroco riceve il lunedì. il parroco saluta.",
		map[string]string{"il parroco": "don Giovanni"})
	want := "don Giovanni riceve il lunedì. don Giovanni saluta."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
