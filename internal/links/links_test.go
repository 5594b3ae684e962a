package links

import (
	"context"
	"errors"
	"slices"
	"testing"

	"forensia/internal/apperr"
	"forensia/internal/db"
)

// fakeStore keeps the two-sided references in memory and can inject
// transient failures per operation.
type fakeStore struct {
	cases    map[string]map[db.ChildKind][]string
	children map[db.ChildKind]map[string]string // child id -> case id

	addFailures int
	addCalls    int
	deleted     []string
}

func newFakeStore(caseIDs ...string) *fakeStore {
	s := &fakeStore{
		cases: make(map[string]map[db.ChildKind][]string),
		children: map[db.ChildKind]map[string]string{
			db.ChildPatients: {},
			db.ChildEvidence: {},
			db.ChildReports:  {},
		},
	}
	for _, id := range caseIDs {
		s.cases[id] = make(map[db.ChildKind][]string)
	}
	return s
}

func (s *fakeStore) CaseExists(_ context.Context, id string) (bool, error) {
	_, ok := s.cases[id]
	return ok, nil
}

func (s *fakeStore) AddCaseChild(_ context.Context, caseID, childID string, kind db.ChildKind) error {
	s.addCalls++
	if s.addFailures > 0 {
		s.addFailures--
		return apperr.Persistence("attach child", errors.New("transient"))
	}
	collections, ok := s.cases[caseID]
	if !ok {
		return apperr.NotFound("case", caseID)
	}
	if !slices.Contains(collections[kind], childID) {
		collections[kind] = append(collections[kind], childID)
	}
	return nil
}

func (s *fakeStore) RemoveCaseChild(_ context.Context, caseID, childID string, kind db.ChildKind) error {
	collections, ok := s.cases[caseID]
	if !ok {
		return apperr.NotFound("case", caseID)
	}
	collections[kind] = slices.DeleteFunc(collections[kind], func(id string) bool {
		return id == childID
	})
	return nil
}

func (s *fakeStore) DeletePatientsByCase(_ context.Context, caseID string) (int64, error) {
	var count int64
	for id, owner := range s.children[db.ChildPatients] {
		if owner == caseID {
			delete(s.children[db.ChildPatients], id)
			count++
		}
	}
	return count, nil
}

func (s *fakeStore) DeleteCase(_ context.Context, id string) error {
	if _, ok := s.cases[id]; !ok {
		return apperr.NotFound("case", id)
	}
	delete(s.cases, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *fakeStore) UnlinkedChildren(_ context.Context, kind db.ChildKind) ([]db.Link, error) {
	var orphans []db.Link
	for childID, caseID := range s.children[kind] {
		collections, ok := s.cases[caseID]
		if !ok {
			continue
		}
		if !slices.Contains(collections[kind], childID) {
			orphans = append(orphans, db.Link{CaseID: caseID, ChildID: childID})
		}
	}
	return orphans, nil
}

func TestAttachIsIdempotent(t *testing.T) {
	store := newFakeStore("c1")
	linker := New(store)
	ctx := context.Background()

	for range 3 {
		if err := linker.Attach(ctx, "c1", "p1", db.ChildPatients); err != nil {
			t.Fatalf("attach: %v", err)
		}
	}

	got := store.cases["c1"][db.ChildPatients]
	if len(got) != 1 || got[0] != "p1" {
		t.Fatalf("expected exactly one attached patient, got %v", got)
	}
}

func TestAttachRetriesTransientFailure(t *testing.T) {
	store := newFakeStore("c1")
	store.addFailures = 1
	linker := New(store)

	if err := linker.Attach(context.Background(), "c1", "p1", db.ChildPatients); err != nil {
		t.Fatalf("attach after retry: %v", err)
	}
	if store.addCalls != 2 {
		t.Fatalf("expected 2 attach calls, got %d", store.addCalls)
	}
}

func TestAttachGivesUpAfterOneRetry(t *testing.T) {
	store := newFakeStore("c1")
	store.addFailures = 2
	linker := New(store)

	err := linker.Attach(context.Background(), "c1", "p1", db.ChildPatients)
	if !errors.Is(err, apperr.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if store.addCalls != 2 {
		t.Fatalf("expected 2 attach calls, got %d", store.addCalls)
	}
}

func TestDetachAbsentChildIsNoOp(t *testing.T) {
	store := newFakeStore("c1")
	linker := New(store)

	if err := linker.Detach(context.Background(), "c1", "ghost", db.ChildEvidence); err != nil {
		t.Fatalf("detach absent child: %v", err)
	}
}

func TestCreateWithParent(t *testing.T) {
	t.Run("missing case fails before insert", func(t *testing.T) {
		store := newFakeStore("c1")
		linker := New(store)
		inserted := false

		_, err := linker.CreateWithParent(context.Background(), "nope", db.ChildPatients,
			func(ctx context.Context) (string, error) {
				inserted = true
				return "p1", nil
			})
		if !errors.Is(err, apperr.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
		if inserted {
			t.Fatal("insert must not run when the case is missing")
		}
	})

	t.Run("links child after insert", func(t *testing.T) {
		store := newFakeStore("c1")
		linker := New(store)

		id, err := linker.CreateWithParent(context.Background(), "c1", db.ChildReports,
			func(ctx context.Context) (string, error) {
				store.children[db.ChildReports]["r1"] = "c1"
				return "r1", nil
			})
		if err != nil {
			t.Fatalf("create with parent: %v", err)
		}
		if id != "r1" {
			t.Fatalf("id = %q, want r1", id)
		}
		if got := store.cases["c1"][db.ChildReports]; len(got) != 1 || got[0] != "r1" {
			t.Fatalf("report not linked, collections = %v", got)
		}
	})

	t.Run("insert failure propagates", func(t *testing.T) {
		store := newFakeStore("c1")
		linker := New(store)
		boom := errors.New("insert failed")

		_, err := linker.CreateWithParent(context.Background(), "c1", db.ChildPatients,
			func(ctx context.Context) (string, error) { return "", boom })
		if !errors.Is(err, boom) {
			t.Fatalf("expected insert error, got %v", err)
		}
	})
}

func TestCascadeDeleteCase(t *testing.T) {
	store := newFakeStore("c1")
	store.children[db.ChildPatients]["p1"] = "c1"
	store.children[db.ChildPatients]["p2"] = "c1"
	store.children[db.ChildPatients]["p3"] = "other"
	linker := New(store)

	if err := linker.CascadeDeleteCase(context.Background(), "c1"); err != nil {
		t.Fatalf("cascade delete: %v", err)
	}

	if len(store.deleted) != 1 || store.deleted[0] != "c1" {
		t.Fatalf("case not deleted, got %v", store.deleted)
	}
	if len(store.children[db.ChildPatients]) != 1 {
		t.Fatalf("expected only the unrelated patient to survive, got %v", store.children[db.ChildPatients])
	}
	if _, ok := store.children[db.ChildPatients]["p3"]; !ok {
		t.Fatal("patient of another case must not be cascaded")
	}
}

func TestReconcileReattachesOrphans(t *testing.T) {
	store := newFakeStore("c1", "c2")
	// p1 is linked properly, p2 and e1 are orphans, r1 points at a deleted case.
	store.children[db.ChildPatients]["p1"] = "c1"
	store.cases["c1"][db.ChildPatients] = []string{"p1"}
	store.children[db.ChildPatients]["p2"] = "c1"
	store.children[db.ChildEvidence]["e1"] = "c2"
	store.children[db.ChildReports]["r1"] = "gone"
	linker := New(store)

	repaired, err := linker.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if repaired != 2 {
		t.Fatalf("repaired = %d, want 2", repaired)
	}
	if got := store.cases["c1"][db.ChildPatients]; len(got) != 2 {
		t.Fatalf("p2 not reattached, collections = %v", got)
	}
	if got := store.cases["c2"][db.ChildEvidence]; len(got) != 1 || got[0] != "e1" {
		t.Fatalf("e1 not reattached, collections = %v", got)
	}
}
