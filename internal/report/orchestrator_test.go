package report

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"forensia/internal/apperr"
	"forensia/internal/db"
)

type fakeOrchStore struct {
	cases   map[string]db.Case
	reports map[string]db.Report

	detailCalls   int
	artifactCalls int
	savedKey      string
	savedContent  string
}

func (s *fakeOrchStore) GetCase(_ context.Context, id string) (db.Case, error) {
	c, ok := s.cases[id]
	if !ok {
		return db.Case{}, apperr.NotFound("case", id)
	}
	return c, nil
}

func (s *fakeOrchStore) GetCaseDetail(_ context.Context, id string) (db.CaseDetail, error) {
	s.detailCalls++
	c, ok := s.cases[id]
	if !ok {
		return db.CaseDetail{}, apperr.NotFound("case", id)
	}
	return db.CaseDetail{Case: c}, nil
}

func (s *fakeOrchStore) GetReport(_ context.Context, id string) (db.Report, error) {
	r, ok := s.reports[id]
	if !ok {
		return db.Report{}, apperr.NotFound("report", id)
	}
	return r, nil
}

func (s *fakeOrchStore) SetReportArtifact(_ context.Context, id, artifactKey, content string) (db.Report, error) {
	s.artifactCalls++
	s.savedKey = artifactKey
	s.savedContent = content
	r := s.reports[id]
	r.ArtifactKey = &artifactKey
	r.Content = content
	return r, nil
}

type fakeAttacher struct {
	attached []string
	err      error
}

func (a *fakeAttacher) Attach(_ context.Context, caseID, childID string, kind db.ChildKind) error {
	if a.err != nil {
		return a.err
	}
	a.attached = append(a.attached, childID)
	return nil
}

type fakeGenerator struct {
	text string
	ok   bool
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, bool) {
	return g.text, g.ok
}

type fakeArtifacts struct {
	stored map[string][]byte
	putErr error
}

func (a *fakeArtifacts) Get(_ context.Context, key string) ([]byte, error) {
	return nil, errors.New("not stored")
}

func (a *fakeArtifacts) Put(_ context.Context, key, contentType string, data []byte) error {
	if a.putErr != nil {
		return a.putErr
	}
	if a.stored == nil {
		a.stored = map[string][]byte{}
	}
	a.stored[key] = data
	return nil
}

func newOrchFixture() (*fakeOrchStore, *fakeAttacher, *fakeGenerator, *fakeArtifacts, *Orchestrator) {
	store := &fakeOrchStore{
		cases: map[string]db.Case{
			"c1": {ID: "c1", Title: "Case", CreatedBy: 100},
		},
		reports: map[string]db.Report{
			"r1": {ID: "r1", CaseID: "c1", Title: "Report", Content: "Drafted findings."},
		},
	}
	attacher := &fakeAttacher{}
	gen := &fakeGenerator{}
	objects := &fakeArtifacts{}
	orch := NewOrchestrator(store, attacher, gen, objects, "")
	return store, attacher, gen, objects, orch
}

func TestGenerateForbiddenBeforeAnyWork(t *testing.T) {
	store, _, _, objects, orch := newOrchFixture()

	_, err := orch.Generate(context.Background(), Request{
		ReportID: "r1", CaseID: "c1", RequestedBy: 999, Role: RoleAssistant,
	})
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if store.detailCalls != 0 {
		t.Fatal("case snapshot must not be loaded for a forbidden request")
	}
	if len(objects.stored) != 0 {
		t.Fatal("no artifact may be written for a forbidden request")
	}
}

func TestGenerateAuthorization(t *testing.T) {
	tests := []struct {
		name    string
		userID  int64
		role    string
		allowed bool
	}{
		{"admin", 999, RoleAdmin, true},
		{"examiner", 999, RoleExaminer, true},
		{"assistant creator", 100, RoleAssistant, true},
		{"assistant stranger", 999, RoleAssistant, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, _, orch := newOrchFixture()
			_, err := orch.Generate(context.Background(), Request{
				ReportID: "r1", CaseID: "c1", RequestedBy: tt.userID, Role: tt.role,
			})
			if tt.allowed && errors.Is(err, apperr.ErrForbidden) {
				t.Fatalf("expected access, got %v", err)
			}
			if !tt.allowed && !errors.Is(err, apperr.ErrForbidden) {
				t.Fatalf("expected forbidden, got %v", err)
			}
		})
	}
}

func TestGenerateSuccess(t *testing.T) {
	store, attacher, gen, objects, orch := newOrchFixture()
	gen.text = "Automated narrative."
	gen.ok = true

	updated, err := orch.Generate(context.Background(), Request{
		ReportID: "r1", CaseID: "c1", RequestedBy: 100, Role: RoleAssistant,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	wantKey := "cases/c1/reports/r1.pdf"
	artifact, ok := objects.stored[wantKey]
	if !ok {
		t.Fatalf("artifact not stored at %s, stored keys: %v", wantKey, objects.stored)
	}
	if !bytes.HasPrefix(artifact, []byte("%PDF")) {
		t.Fatal("stored artifact is not a PDF")
	}

	if store.savedKey != wantKey {
		t.Fatalf("report row key = %q, want %q", store.savedKey, wantKey)
	}
	if !strings.Contains(store.savedContent, "Drafted findings.") ||
		!strings.Contains(store.savedContent, "Automated narrative.") {
		t.Fatalf("content = %q, want draft plus narrative", store.savedContent)
	}

	if len(attacher.attached) != 1 || attacher.attached[0] != "r1" {
		t.Fatalf("report not attached, got %v", attacher.attached)
	}
	if updated.ArtifactKey == nil || *updated.ArtifactKey != wantKey {
		t.Fatalf("returned report missing artifact key: %+v", updated)
	}
}

func TestGenerateWithoutNarrativeService(t *testing.T) {
	store, _, gen, _, orch := newOrchFixture()
	gen.ok = false

	_, err := orch.Generate(context.Background(), Request{
		ReportID: "r1", CaseID: "c1", RequestedBy: 100, Role: RoleAssistant,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if store.savedContent != "Drafted findings." {
		t.Fatalf("content must be unchanged when no service is configured, got %q", store.savedContent)
	}
}

func TestGenerateReportCaseMismatch(t *testing.T) {
	store, _, _, _, orch := newOrchFixture()
	store.cases["c2"] = db.Case{ID: "c2", CreatedBy: 100}

	_, err := orch.Generate(context.Background(), Request{
		ReportID: "r1", CaseID: "c2", RequestedBy: 100, Role: RoleAdmin,
	})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGenerateStoreFailureLeavesRowUntouched(t *testing.T) {
	store, attacher, _, objects, orch := newOrchFixture()
	objects.putErr = errors.New("bucket offline")

	_, err := orch.Generate(context.Background(), Request{
		ReportID: "r1", CaseID: "c1", RequestedBy: 100, Role: RoleAdmin,
	})
	if err == nil {
		t.Fatal("expected error from artifact store")
	}
	if store.artifactCalls != 0 {
		t.Fatal("report row must not be updated when the artifact write fails")
	}
	if len(attacher.attached) != 0 {
		t.Fatal("report must not be attached when the artifact write fails")
	}
}

func TestGenerateMissingCase(t *testing.T) {
	_, _, _, _, orch := newOrchFixture()

	_, err := orch.Generate(context.Background(), Request{
		ReportID: "r1", CaseID: "ghost", RequestedBy: 1, Role: RoleAdmin,
	})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
