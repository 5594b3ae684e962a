package report

import (
	"context"
	"fmt"
	"time"

	"forensia/internal/apperr"
	"forensia/internal/db"
	"forensia/internal/util"
	"forensia/pkg/logger"
)

// Store is the slice of the entity store the orchestrator needs.
type Store interface {
	GetCase(ctx context.Context, id string) (db.Case, error)
	GetCaseDetail(ctx context.Context, id string) (db.CaseDetail, error)
	GetReport(ctx context.Context, id string) (db.Report, error)
	SetReportArtifact(ctx context.Context, id, artifactKey, content string) (db.Report, error)
}

// Attacher links a finished artifact's report into its case collection.
type Attacher interface {
	Attach(ctx context.Context, caseID, childID string, kind db.ChildKind) error
}

// Generator produces the narrative section. ok is false when no narrative
// service is configured at all.
type Generator interface {
	Generate(ctx context.Context, prompt string) (text string, ok bool)
}

// Artifacts is the object-store slice used for logo, evidence images and
// the finished PDF.
type Artifacts interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key, contentType string, data []byte) error
}

// Orchestrator runs one report generation end to end: authorize, snapshot
// the case, ask for a narrative, compile the PDF, store it and link it.
type Orchestrator struct {
	store    Store
	links    Attacher
	gen      Generator
	objects  Artifacts
	renderer *Renderer
	logoKey  string
}

func NewOrchestrator(store Store, links Attacher, gen Generator, objects Artifacts, logoKey string) *Orchestrator {
	return &Orchestrator{
		store:    store,
		links:    links,
		gen:      gen,
		objects:  objects,
		renderer: NewRenderer(objects.Get),
		logoKey:  logoKey,
	}
}

// Request identifies one generation job and who asked for it. The requester
// identity travels with the job because authorization happens here, not at
// enqueue time.
type Request struct {
	ReportID    string `json:"report_id"`
	CaseID      string `json:"case_id"`
	RequestedBy int64  `json:"requested_by"`
	Role        string `json:"role"`
}

const (
	RoleAdmin     = "admin"
	RoleExaminer  = "examiner"
	RoleAssistant = "assistant"
)

// Generate compiles the report named by req. Authorization is checked
// before any expensive work. On any failure after a previous artifact was
// stored, that artifact stays untouched; the new one is written only after
// a complete successful compilation.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (db.Report, error) {
	c, err := o.store.GetCase(ctx, req.CaseID)
	if err != nil {
		return db.Report{}, err
	}
	if err := authorize(c, req); err != nil {
		return db.Report{}, err
	}

	rep, err := o.store.GetReport(ctx, req.ReportID)
	if err != nil {
		return db.Report{}, err
	}
	if rep.CaseID != req.CaseID {
		return db.Report{}, apperr.Validation(
			fmt.Sprintf("report %s does not belong to case %s", req.ReportID, req.CaseID))
	}

	detail, err := o.store.GetCaseDetail(ctx, req.CaseID)
	if err != nil {
		return db.Report{}, err
	}

	narrative, attempted := o.gen.Generate(ctx, BuildPrompt(detail))

	content := rep.Content
	if attempted && narrative != "" {
		content = content + "\n\n---\n\n" + narrative
	}

	blocks := BuildLayout(DocumentData{
		Case:          detail.Case,
		Patients:      detail.Patients,
		Evidence:      detail.Evidence,
		NarrativeText: narrative,
		GeneratedAt:   time.Now(),
		LogoKey:       o.logoKey,
	})
	artifact, err := o.renderer.Render(ctx, blocks)
	if err != nil {
		return db.Report{}, fmt.Errorf("%w: compile report %s: %v", apperr.ErrRender, req.ReportID, err)
	}

	key := fmt.Sprintf("cases/%s/reports/%s.pdf", req.CaseID, req.ReportID)
	err = util.RetryErrWithContext(ctx, 2, func(ctx context.Context) error {
		return o.objects.Put(ctx, key, "application/pdf", artifact)
	})
	if err != nil {
		return db.Report{}, fmt.Errorf("store report artifact %s: %w", key, err)
	}

	updated, err := o.store.SetReportArtifact(ctx, req.ReportID, key, content)
	if err != nil {
		return db.Report{}, err
	}

	if err := o.links.Attach(ctx, req.CaseID, req.ReportID, db.ChildReports); err != nil {
		// The report row already carries its back-reference; the missing
		// forward link is repaired by the reconcile scan.
		logger.Warn("Report generated but attach failed", "report_id", req.ReportID, "err", err)
	}

	logger.Info("Report compiled", "report_id", req.ReportID, "case_id", req.CaseID, "artifact", key, "bytes", len(artifact))
	return updated, nil
}

// authorize allows privileged roles and the case creator.
func authorize(c db.Case, req Request) error {
	if req.Role == RoleAdmin || req.Role == RoleExaminer {
		return nil
	}
	if c.CreatedBy == req.RequestedBy {
		return nil
	}
	return apperr.Forbidden("only privileged users or the case creator may generate reports")
}
