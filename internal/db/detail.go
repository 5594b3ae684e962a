package db

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// GetCaseDetail loads a case populated with its patients, evidence and
// reports. The three child loads run in parallel.
func (q *Queries) GetCaseDetail(ctx context.Context, id string) (CaseDetail, error) {
	c, err := q.GetCase(ctx, id)
	if err != nil {
		return CaseDetail{}, err
	}

	detail := CaseDetail{Case: c}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		patients, err := q.ListPatientsByCase(gctx, id)
		if err == nil {
			detail.Patients = patients
		}
		return err
	})
	g.Go(func() error {
		evidence, err := q.ListEvidence(gctx, ListEvidenceParams{CaseID: id})
		if err == nil {
			detail.Evidence = evidence
		}
		return err
	})
	g.Go(func() error {
		reports, err := q.ListReports(gctx, id)
		if err == nil {
			detail.Reports = reports
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return CaseDetail{}, err
	}
	return detail, nil
}
