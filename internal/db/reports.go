package db

import (
	"context"
	"errors"

	"forensia/internal/apperr"

	"github.com/jackc/pgx/v5"
)

const reportColumns = `id, case_id, title, kind, content, status, attachments,
	artifact_key, created_by, created_at, updated_at`

func scanReport(row scanner) (Report, error) {
	var r Report
	err := row.Scan(
		&r.ID, &r.CaseID, &r.Title, &r.Kind, &r.Content, &r.Status, &r.Attachments,
		&r.ArtifactKey, &r.CreatedBy, &r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}

type CreateReportParams struct {
	ID          string
	CaseID      string
	Title       string
	Kind        ReportKind
	Content     string
	Status      ReportStatus
	Attachments []Attachment
	CreatedBy   int64
}

func (q *Queries) CreateReport(ctx context.Context, arg CreateReportParams) (Report, error) {
	if arg.Attachments == nil {
		arg.Attachments = []Attachment{}
	}
	row := q.db.QueryRow(ctx, `
		INSERT INTO reports (id, case_id, title, kind, content, status, attachments, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+reportColumns,
		arg.ID, arg.CaseID, arg.Title, arg.Kind, arg.Content, arg.Status,
		arg.Attachments, arg.CreatedBy,
	)
	r, err := scanReport(row)
	if err != nil {
		return Report{}, apperr.Persistence("create report", err)
	}
	return r, nil
}

func (q *Queries) GetReport(ctx context.Context, id string) (Report, error) {
	row := q.db.QueryRow(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = $1`, id)
	r, err := scanReport(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Report{}, apperr.NotFound("report", id)
	}
	if err != nil {
		return Report{}, apperr.Persistence("get report", err)
	}
	return r, nil
}

func (q *Queries) ListReports(ctx context.Context, caseID string) ([]Report, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+reportColumns+` FROM reports
		WHERE ($1 = '' OR case_id = $1)
		ORDER BY array_position((SELECT report_ids FROM cases WHERE id = $1), id), created_at`,
		caseID,
	)
	if err != nil {
		return nil, apperr.Persistence("list reports", err)
	}
	defer rows.Close()

	reports := make([]Report, 0)
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, apperr.Persistence("scan report", err)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("scan report", err)
	}
	return reports, nil
}

// SetReportArtifact records a successful compilation: the final content (with
// any narrative appended) and the artifact's storage key.
func (q *Queries) SetReportArtifact(ctx context.Context, id, artifactKey, content string) (Report, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE reports SET artifact_key = $2, content = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+reportColumns,
		id, artifactKey, content,
	)
	r, err := scanReport(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Report{}, apperr.NotFound("report", id)
	}
	if err != nil {
		return Report{}, apperr.Persistence("set report artifact", err)
	}
	return r, nil
}

func (q *Queries) DeleteReport(ctx context.Context, id string) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return apperr.Persistence("delete report", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("report", id)
	}
	return nil
}

// Link is a (case, child) pair found by back-reference scan.
type Link struct {
	CaseID  string
	ChildID string
}

// UnlinkedChildren finds children whose back-reference names an existing case
// that does not list them, i.e. orphans left behind when the attach step of a
// two-sided write failed.
func (q *Queries) UnlinkedChildren(ctx context.Context, kind ChildKind) ([]Link, error) {
	var table string
	switch kind {
	case ChildPatients:
		table = "patients"
	case ChildEvidence:
		table = "evidence"
	default:
		table = "reports"
	}
	rows, err := q.db.Query(ctx, `
		SELECT child.case_id, child.id
		FROM `+table+` child
		JOIN cases c ON c.id = child.case_id
		WHERE NOT (child.id = ANY(c.`+kind.column()+`))
		ORDER BY child.created_at`,
	)
	if err != nil {
		return nil, apperr.Persistence("scan unlinked children", err)
	}
	defer rows.Close()

	links := make([]Link, 0)
	for rows.Next() {
		var l Link
		if err := rows.Scan(&l.CaseID, &l.ChildID); err != nil {
			return nil, apperr.Persistence("scan unlinked children", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("scan unlinked children", err)
	}
	return links, nil
}
