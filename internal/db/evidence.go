package db

import (
	"context"
	"errors"

	"forensia/internal/apperr"

	"github.com/jackc/pgx/v5"
)

const evidenceColumns = `id, case_id, kind, content, file_keys, annotations,
	longitude, latitude, address, uploaded_by, created_at`

func scanEvidence(row scanner) (Evidence, error) {
	var e Evidence
	var lon, lat *float64
	err := row.Scan(
		&e.ID, &e.CaseID, &e.Kind, &e.Content, &e.FileKeys, &e.Annotations,
		&lon, &lat, &e.Address, &e.UploadedBy, &e.CreatedAt,
	)
	if err != nil {
		return Evidence{}, err
	}
	if lon != nil && lat != nil {
		e.Location = &Geo{Longitude: *lon, Latitude: *lat}
	}
	return e, nil
}

type CreateEvidenceParams struct {
	ID          string
	CaseID      string
	Kind        EvidenceKind
	Content     string
	FileKeys    []string
	Annotations []string
	Location    *Geo
	Address     *string
	UploadedBy  int64
}

func (q *Queries) CreateEvidence(ctx context.Context, arg CreateEvidenceParams) (Evidence, error) {
	var lon, lat *float64
	if arg.Location != nil {
		lon, lat = &arg.Location.Longitude, &arg.Location.Latitude
	}
	if arg.FileKeys == nil {
		arg.FileKeys = []string{}
	}
	if arg.Annotations == nil {
		arg.Annotations = []string{}
	}
	row := q.db.QueryRow(ctx, `
		INSERT INTO evidence (id, case_id, kind, content, file_keys, annotations,
			longitude, latitude, address, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+evidenceColumns,
		arg.ID, arg.CaseID, arg.Kind, arg.Content, arg.FileKeys, arg.Annotations,
		lon, lat, arg.Address, arg.UploadedBy,
	)
	e, err := scanEvidence(row)
	if err != nil {
		return Evidence{}, apperr.Persistence("create evidence", err)
	}
	return e, nil
}

func (q *Queries) GetEvidence(ctx context.Context, id string) (Evidence, error) {
	row := q.db.QueryRow(ctx, `SELECT `+evidenceColumns+` FROM evidence WHERE id = $1`, id)
	e, err := scanEvidence(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Evidence{}, apperr.NotFound("evidence", id)
	}
	if err != nil {
		return Evidence{}, apperr.Persistence("get evidence", err)
	}
	return e, nil
}

// ListEvidenceParams filters by kind and case; empty strings match all.
type ListEvidenceParams struct {
	Kind   string
	CaseID string
}

func (q *Queries) ListEvidence(ctx context.Context, arg ListEvidenceParams) ([]Evidence, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+evidenceColumns+` FROM evidence
		WHERE ($1 = '' OR kind = $1) AND ($2 = '' OR case_id = $2)
		ORDER BY array_position((SELECT evidence_ids FROM cases WHERE id = $2), id), created_at`,
		arg.Kind, arg.CaseID,
	)
	if err != nil {
		return nil, apperr.Persistence("list evidence", err)
	}
	defer rows.Close()

	items := make([]Evidence, 0)
	for rows.Next() {
		e, err := scanEvidence(rows)
		if err != nil {
			return nil, apperr.Persistence("scan evidence", err)
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("scan evidence", err)
	}
	return items, nil
}

func (q *Queries) DeleteEvidence(ctx context.Context, id string) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM evidence WHERE id = $1`, id)
	if err != nil {
		return apperr.Persistence("delete evidence", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("evidence", id)
	}
	return nil
}
