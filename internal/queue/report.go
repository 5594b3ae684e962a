package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"forensia/internal/apperr"
	"forensia/internal/report"
)

// ProcessReportMessage decodes one generation request and runs it.
func ProcessReportMessage(ctx context.Context, orch *report.Orchestrator, body []byte) error {
	var req report.Request
	if err := json.Unmarshal(body, &req); err != nil {
		return fmt.Errorf("%w: malformed report job: %v", apperr.ErrValidation, err)
	}
	if req.ReportID == "" || req.CaseID == "" {
		return apperr.Validation("report job missing report_id or case_id")
	}

	_, err := orch.Generate(ctx, req)
	return err
}

// IsPermanent reports whether a processing failure can never succeed on
// retry. Permanent failures are acked and dropped instead of cycling
// through the retry queue.
func IsPermanent(err error) bool {
	return errors.Is(err, apperr.ErrNotFound) ||
		errors.Is(err, apperr.ErrForbidden) ||
		errors.Is(err, apperr.ErrValidation)
}
