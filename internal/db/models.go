package db

import (
	"encoding/json"
	"time"
)

type CaseCategory string

const (
	CaseAccident       CaseCategory = "accident"
	CaseIdentification CaseCategory = "identification"
	CaseCriminal       CaseCategory = "criminal"
)

type CaseStatus string

const (
	CaseInProgress CaseStatus = "in_progress"
	CaseFinalized  CaseStatus = "finalized"
	CaseArchived   CaseStatus = "archived"
)

type EvidenceKind string

const (
	EvidenceImage EvidenceKind = "image"
	EvidenceText  EvidenceKind = "text"
)

type ReportKind string

const (
	ReportExpert    ReportKind = "expert_report"
	ReportTechnical ReportKind = "technical_report"
	ReportOpinion   ReportKind = "dental_opinion"
)

type ReportStatus string

const (
	ReportDraft          ReportStatus = "draft"
	ReportFinalizedState ReportStatus = "finalized"
	ReportArchivedState  ReportStatus = "archived"
)

// ChildKind names one of the ordered child collections on a case.
type ChildKind string

const (
	ChildPatients ChildKind = "patients"
	ChildEvidence ChildKind = "evidences"
	ChildReports  ChildKind = "reports"
)

func (k ChildKind) column() string {
	switch k {
	case ChildPatients:
		return "patient_ids"
	case ChildEvidence:
		return "evidence_ids"
	default:
		return "report_ids"
	}
}

// Case is the aggregate root of one forensic investigation. The child ID
// arrays keep insertion order; every member must point back at this case.
type Case struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	Category      CaseCategory `json:"category"`
	Status        CaseStatus   `json:"status"`
	ResponsibleID int64        `json:"responsible_id"`
	CreatedBy     int64        `json:"created_by"`
	OpenedAt      time.Time    `json:"opened_at"`
	History       string       `json:"history"`
	AnalysisNotes string       `json:"analysis_notes"`
	PatientIDs    []string     `json:"patient_ids"`
	EvidenceIDs   []string     `json:"evidence_ids"`
	ReportIDs     []string     `json:"report_ids"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// Patient carries a required back-reference to its owning case. Name is
// optional: identification may still be pending.
type Patient struct {
	ID              string    `json:"id"`
	CaseID          string    `json:"case_id"`
	NIC             string    `json:"nic"`
	Name            *string   `json:"name"`
	Gender          string    `json:"gender"`
	Age             int32     `json:"age"`
	Document        *string   `json:"document"`
	Address         *string   `json:"address"`
	Ethnicity       *string   `json:"ethnicity"`
	Chart           Chart     `json:"chart"`
	AnatomicalNotes string    `json:"anatomical_notes"`
	CreatedBy       int64     `json:"created_by"`
	UpdatedBy       int64     `json:"updated_by"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Identified reports whether the patient has been named.
func (p *Patient) Identified() bool {
	return p.Name != nil && *p.Name != ""
}

// MarshalJSON surfaces the derived identified attribute.
func (p Patient) MarshalJSON() ([]byte, error) {
	type alias Patient
	return json.Marshal(struct {
		alias
		Identified bool `json:"identified"`
	}{alias(p), p.Identified()})
}

// Geo is a stored (longitude, latitude) pair. Presentation renders it
// latitude first; storage order never changes.
type Geo struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

type Evidence struct {
	ID          string       `json:"id"`
	CaseID      string       `json:"case_id"`
	Kind        EvidenceKind `json:"kind"`
	Content     string       `json:"content"`
	FileKeys    []string     `json:"file_keys"`
	Annotations []string     `json:"annotations"`
	Location    *Geo         `json:"location"`
	Address     *string      `json:"address"`
	UploadedBy  int64        `json:"uploaded_by"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Attachment is an already-stored uploaded file referenced by a report.
type Attachment struct {
	Filename   string    `json:"filename"`
	Key        string    `json:"key"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type Report struct {
	ID          string       `json:"id"`
	CaseID      string       `json:"case_id"`
	Title       string       `json:"title"`
	Kind        ReportKind   `json:"kind"`
	Content     string       `json:"content"`
	Status      ReportStatus `json:"status"`
	Attachments []Attachment `json:"attachments"`
	ArtifactKey *string      `json:"artifact_key"`
	CreatedBy   int64        `json:"created_by"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// CaseDetail is a case populated with its owned children.
type CaseDetail struct {
	Case     Case       `json:"case"`
	Patients []Patient  `json:"patients"`
	Evidence []Evidence `json:"evidence"`
	Reports  []Report   `json:"reports"`
}
