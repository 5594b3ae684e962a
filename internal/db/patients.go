package db

import (
	"context"
	"errors"

	"forensia/internal/apperr"

	"github.com/jackc/pgx/v5"
)

const patientColumns = `id, case_id, nic, name, gender, age, document, address, ethnicity,
	chart, anatomical_notes, created_by, updated_by, created_at, updated_at`

func scanPatient(row scanner) (Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID, &p.CaseID, &p.NIC, &p.Name, &p.Gender, &p.Age, &p.Document, &p.Address,
		&p.Ethnicity, &p.Chart, &p.AnatomicalNotes, &p.CreatedBy, &p.UpdatedBy,
		&p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

type CreatePatientParams struct {
	ID              string
	CaseID          string
	NIC             string
	Name            *string
	Gender          string
	Age             int32
	Document        *string
	Address         *string
	Ethnicity       *string
	Chart           Chart
	AnatomicalNotes string
	CreatedBy       int64
}

func (q *Queries) CreatePatient(ctx context.Context, arg CreatePatientParams) (Patient, error) {
	if arg.Chart == nil {
		arg.Chart = Chart{}
	}
	row := q.db.QueryRow(ctx, `
		INSERT INTO patients (id, case_id, nic, name, gender, age, document, address, ethnicity,
			chart, anatomical_notes, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		RETURNING `+patientColumns,
		arg.ID, arg.CaseID, arg.NIC, arg.Name, arg.Gender, arg.Age, arg.Document, arg.Address,
		arg.Ethnicity, arg.Chart, arg.AnatomicalNotes, arg.CreatedBy,
	)
	p, err := scanPatient(row)
	if err != nil {
		return Patient{}, apperr.Persistence("create patient", err)
	}
	return p, nil
}

func (q *Queries) GetPatient(ctx context.Context, id string) (Patient, error) {
	row := q.db.QueryRow(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = $1`, id)
	p, err := scanPatient(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Patient{}, apperr.NotFound("patient", id)
	}
	if err != nil {
		return Patient{}, apperr.Persistence("get patient", err)
	}
	return p, nil
}

// ListPatientsByCase returns patients in the order the case's patient_ids
// array records; rows not yet re-attached by the reconcile scan sort last.
func (q *Queries) ListPatientsByCase(ctx context.Context, caseID string) ([]Patient, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+patientColumns+` FROM patients WHERE case_id = $1
		ORDER BY array_position((SELECT patient_ids FROM cases WHERE id = $1), id), created_at`,
		caseID,
	)
	if err != nil {
		return nil, apperr.Persistence("list patients by case", err)
	}
	defer rows.Close()
	return collectPatients(rows)
}

func (q *Queries) ListPatients(ctx context.Context, page Page) ([]Patient, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+patientColumns+` FROM patients ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		page.Limit, page.Offset(),
	)
	if err != nil {
		return nil, apperr.Persistence("list patients", err)
	}
	defer rows.Close()
	return collectPatients(rows)
}

func collectPatients(rows pgx.Rows) ([]Patient, error) {
	patients := make([]Patient, 0)
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, apperr.Persistence("scan patient", err)
		}
		patients = append(patients, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("scan patient", err)
	}
	return patients, nil
}

func (q *Queries) CountPatients(ctx context.Context) (int64, error) {
	var total int64
	if err := q.db.QueryRow(ctx, `SELECT count(*) FROM patients`).Scan(&total); err != nil {
		return 0, apperr.Persistence("count patients", err)
	}
	return total, nil
}

func (q *Queries) CountPatientsByCase(ctx context.Context, caseID string) (int64, error) {
	var total int64
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM patients WHERE case_id = $1`, caseID).Scan(&total)
	if err != nil {
		return 0, apperr.Persistence("count patients by case", err)
	}
	return total, nil
}

type UpdatePatientParams struct {
	ID              string
	NIC             string
	Name            *string
	Gender          string
	Age             int32
	Document        *string
	Address         *string
	Ethnicity       *string
	Chart           Chart
	AnatomicalNotes string
	UpdatedBy       int64
}

func (q *Queries) UpdatePatient(ctx context.Context, arg UpdatePatientParams) (Patient, error) {
	if arg.Chart == nil {
		arg.Chart = Chart{}
	}
	row := q.db.QueryRow(ctx, `
		UPDATE patients SET nic = $2, name = $3, gender = $4, age = $5, document = $6,
			address = $7, ethnicity = $8, chart = $9, anatomical_notes = $10,
			updated_by = $11, updated_at = now()
		WHERE id = $1
		RETURNING `+patientColumns,
		arg.ID, arg.NIC, arg.Name, arg.Gender, arg.Age, arg.Document, arg.Address,
		arg.Ethnicity, arg.Chart, arg.AnatomicalNotes, arg.UpdatedBy,
	)
	p, err := scanPatient(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Patient{}, apperr.NotFound("patient", arg.ID)
	}
	if err != nil {
		return Patient{}, apperr.Persistence("update patient", err)
	}
	return p, nil
}

func (q *Queries) DeletePatient(ctx context.Context, id string) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return apperr.Persistence("delete patient", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("patient", id)
	}
	return nil
}

// DeletePatientsByCase removes every patient whose back-reference equals
// caseID and returns how many were removed.
func (q *Queries) DeletePatientsByCase(ctx context.Context, caseID string) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM patients WHERE case_id = $1`, caseID)
	if err != nil {
		return 0, apperr.Persistence("delete patients by case", err)
	}
	return tag.RowsAffected(), nil
}
