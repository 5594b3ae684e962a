// Package links keeps the two-sided references between a case and its owned
// children coherent. The store offers per-row atomicity only, so every link
// operation here is idempotent and commutative per (case, child) pair: no
// cross-entity lock is needed, and a failed step can be retried safely.
//
// Concurrent attach and detach of the same pair are not guaranteed
// commutative; callers that can issue both concurrently must serialize them
// per entity.
package links

import (
	"context"
	"errors"
	"fmt"

	"forensia/internal/apperr"
	"forensia/internal/db"
	"forensia/pkg/logger"
)

// Store is the slice of the entity store the linker needs.
type Store interface {
	CaseExists(ctx context.Context, id string) (bool, error)
	AddCaseChild(ctx context.Context, caseID, childID string, kind db.ChildKind) error
	RemoveCaseChild(ctx context.Context, caseID, childID string, kind db.ChildKind) error
	DeletePatientsByCase(ctx context.Context, caseID string) (int64, error)
	DeleteCase(ctx context.Context, id string) error
	UnlinkedChildren(ctx context.Context, kind db.ChildKind) ([]db.Link, error)
}

type Linker struct {
	store Store
}

func New(store Store) *Linker {
	return &Linker{store: store}
}

// Attach adds childID to the case's collection for kind, with set semantics:
// attaching twice leaves one occurrence. A store-level failure is retried
// once; attach is idempotent, so the retry is safe.
func (l *Linker) Attach(ctx context.Context, caseID, childID string, kind db.ChildKind) error {
	err := l.store.AddCaseChild(ctx, caseID, childID, kind)
	if err != nil && errors.Is(err, apperr.ErrPersistence) {
		err = l.store.AddCaseChild(ctx, caseID, childID, kind)
	}
	return err
}

// Detach removes childID from the case's collection for kind; removing an
// absent child is a no-op. Retried once like Attach.
func (l *Linker) Detach(ctx context.Context, caseID, childID string, kind db.ChildKind) error {
	err := l.store.RemoveCaseChild(ctx, caseID, childID, kind)
	if err != nil && errors.Is(err, apperr.ErrPersistence) {
		err = l.store.RemoveCaseChild(ctx, caseID, childID, kind)
	}
	return err
}

// CreateWithParent validates the parent case, persists the child with its
// back-reference via insert, then attaches it to the parent's collection.
//
// If the attach step fails after the child is persisted, the child is left
// reachable-but-unlinked rather than the parent pointing at a nonexistent
// child: an orphan is recoverable by Reconcile, a dangling parent reference
// is not.
func (l *Linker) CreateWithParent(
	ctx context.Context,
	caseID string,
	kind db.ChildKind,
	insert func(ctx context.Context) (string, error),
) (string, error) {
	exists, err := l.store.CaseExists(ctx, caseID)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", apperr.NotFound("case", caseID)
	}

	childID, err := insert(ctx)
	if err != nil {
		return "", err
	}

	if err := l.Attach(ctx, caseID, childID, kind); err != nil {
		return "", fmt.Errorf("attach %s %s to case %s: %w", kind, childID, caseID, err)
	}
	return childID, nil
}

// CascadeDeleteCase deletes every patient owned by the case before removing
// the case itself. A failure in the cascade aborts the deletion: the case is
// never removed while children referencing it still exist.
//
// Evidence and reports are intentionally not cascaded; their rows keep a
// dangling back-reference after case deletion. Reconcile skips them because
// the case row is gone.
func (l *Linker) CascadeDeleteCase(ctx context.Context, caseID string) error {
	deleted, err := l.store.DeletePatientsByCase(ctx, caseID)
	if err != nil {
		return fmt.Errorf("cascade patients of case %s: %w", caseID, err)
	}
	if deleted > 0 {
		logger.Info("Cascade deleted patients", "case_id", caseID, "count", deleted)
	}
	return l.store.DeleteCase(ctx, caseID)
}

// Reconcile scans each child table for rows whose back-reference names an
// existing case that does not list them, and re-attaches them. Transient
// inconsistency from a failed two-sided write is self-healing through this
// scan. Returns how many links were repaired.
func (l *Linker) Reconcile(ctx context.Context) (int, error) {
	repaired := 0
	for _, kind := range []db.ChildKind{db.ChildPatients, db.ChildEvidence, db.ChildReports} {
		orphans, err := l.store.UnlinkedChildren(ctx, kind)
		if err != nil {
			return repaired, err
		}
		for _, o := range orphans {
			if err := l.Attach(ctx, o.CaseID, o.ChildID, kind); err != nil {
				return repaired, fmt.Errorf("reattach %s %s: %w", kind, o.ChildID, err)
			}
			logger.Warn("Reattached orphaned child", "kind", string(kind), "case_id", o.CaseID, "child_id", o.ChildID)
			repaired++
		}
	}
	return repaired, nil
}
