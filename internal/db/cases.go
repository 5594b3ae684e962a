package db

import (
	"context"
	"errors"
	"time"

	"forensia/internal/apperr"

	"github.com/jackc/pgx/v5"
)

const caseColumns = `id, title, description, category, status, responsible_id, created_by,
	opened_at, history, analysis_notes, patient_ids, evidence_ids, report_ids, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanCase(row scanner) (Case, error) {
	var c Case
	err := row.Scan(
		&c.ID, &c.Title, &c.Description, &c.Category, &c.Status, &c.ResponsibleID, &c.CreatedBy,
		&c.OpenedAt, &c.History, &c.AnalysisNotes, &c.PatientIDs, &c.EvidenceIDs, &c.ReportIDs,
		&c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

type CreateCaseParams struct {
	ID            string
	Title         string
	Description   string
	Category      CaseCategory
	Status        CaseStatus
	ResponsibleID int64
	CreatedBy     int64
	OpenedAt      time.Time
	History       string
	AnalysisNotes string
}

func (q *Queries) CreateCase(ctx context.Context, arg CreateCaseParams) (Case, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO cases (id, title, description, category, status, responsible_id, created_by,
			opened_at, history, analysis_notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+caseColumns,
		arg.ID, arg.Title, arg.Description, arg.Category, arg.Status, arg.ResponsibleID,
		arg.CreatedBy, arg.OpenedAt, arg.History, arg.AnalysisNotes,
	)
	c, err := scanCase(row)
	if err != nil {
		return Case{}, apperr.Persistence("create case", err)
	}
	return c, nil
}

func (q *Queries) GetCase(ctx context.Context, id string) (Case, error) {
	row := q.db.QueryRow(ctx, `SELECT `+caseColumns+` FROM cases WHERE id = $1`, id)
	c, err := scanCase(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Case{}, apperr.NotFound("case", id)
	}
	if err != nil {
		return Case{}, apperr.Persistence("get case", err)
	}
	return c, nil
}

func (q *Queries) CaseExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM cases WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, apperr.Persistence("case exists", err)
	}
	return exists, nil
}

// ListCasesParams filters by category and status; empty strings match all.
type ListCasesParams struct {
	Category string
	Status   string
	Page     Page
}

func (q *Queries) ListCases(ctx context.Context, arg ListCasesParams) ([]Case, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+caseColumns+` FROM cases
		WHERE ($1 = '' OR category = $1) AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`,
		arg.Category, arg.Status, arg.Page.Limit, arg.Page.Offset(),
	)
	if err != nil {
		return nil, apperr.Persistence("list cases", err)
	}
	defer rows.Close()

	cases := make([]Case, 0)
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, apperr.Persistence("list cases", err)
		}
		cases = append(cases, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("list cases", err)
	}
	return cases, nil
}

func (q *Queries) CountCases(ctx context.Context, category, status string) (int64, error) {
	var total int64
	err := q.db.QueryRow(ctx, `
		SELECT count(*) FROM cases
		WHERE ($1 = '' OR category = $1) AND ($2 = '' OR status = $2)`,
		category, status,
	).Scan(&total)
	if err != nil {
		return 0, apperr.Persistence("count cases", err)
	}
	return total, nil
}

func (q *Queries) UpdateCaseStatus(ctx context.Context, id string, status CaseStatus) (Case, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE cases SET status = $2, updated_at = now() WHERE id = $1
		RETURNING `+caseColumns,
		id, status,
	)
	c, err := scanCase(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Case{}, apperr.NotFound("case", id)
	}
	if err != nil {
		return Case{}, apperr.Persistence("update case status", err)
	}
	return c, nil
}

// DeleteCase removes the case row only. Cascading child deletion is owned by
// internal/links and must run first.
func (q *Queries) DeleteCase(ctx context.Context, id string) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM cases WHERE id = $1`, id)
	if err != nil {
		return apperr.Persistence("delete case", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("case", id)
	}
	return nil
}

// AddCaseChild appends childID to the case's collection for kind, as a set:
// attaching an already-attached child is a no-op. The update is a single-row
// atomic statement, safe under concurrent attaches of different children.
func (q *Queries) AddCaseChild(ctx context.Context, caseID, childID string, kind ChildKind) error {
	col := kind.column()
	tag, err := q.db.Exec(ctx, `
		UPDATE cases SET `+col+` = array_append(`+col+`, $2), updated_at = now()
		WHERE id = $1 AND NOT ($2 = ANY(`+col+`))`,
		caseID, childID,
	)
	if err != nil {
		return apperr.Persistence("attach child", err)
	}
	if tag.RowsAffected() == 0 {
		// Either the child was already attached or the case is gone.
		exists, err := q.CaseExists(ctx, caseID)
		if err != nil {
			return err
		}
		if !exists {
			return apperr.NotFound("case", caseID)
		}
	}
	return nil
}

// RemoveCaseChild removes childID from the case's collection for kind.
// Removing an absent child is a no-op.
func (q *Queries) RemoveCaseChild(ctx context.Context, caseID, childID string, kind ChildKind) error {
	col := kind.column()
	tag, err := q.db.Exec(ctx, `
		UPDATE cases SET `+col+` = array_remove(`+col+`, $2), updated_at = now()
		WHERE id = $1`,
		caseID, childID,
	)
	if err != nil {
		return apperr.Persistence("detach child", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("case", caseID)
	}
	return nil
}
