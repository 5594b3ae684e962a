package report

import (
	"strings"
	"testing"

	"forensia/internal/db"

	"github.com/pkoukk/tiktoken-go"
)

func TestBuildPrompt(t *testing.T) {
	name := "D. Subject"
	addr := "Riverbank, km 12"
	detail := db.CaseDetail{
		Case: db.Case{
			Title:       "Identification of remains",
			Description: "Partial remains recovered.",
		},
		Patients: []db.Patient{{
			Name:            &name,
			Age:             41,
			Gender:          "male",
			AnatomicalNotes: "healed fracture, left mandible",
			Chart:           db.Chart{"11": db.ScalarValue("intact")},
		}},
		Evidence: []db.Evidence{{
			Kind:    db.EvidenceImage,
			Content: "bite registration",
			Address: &addr,
		}},
	}

	prompt := BuildPrompt(detail)

	for _, want := range []string{
		"Identification of remains",
		"D. Subject",
		"healed fracture, left mandible",
		"bite registration",
		"Riverbank, km 12",
		`"11":"intact"`,
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestBuildPromptUnidentifiedPatient(t *testing.T) {
	detail := db.CaseDetail{
		Case:     db.Case{Title: "x"},
		Patients: []db.Patient{{Age: 30, Gender: "female"}},
	}

	if !strings.Contains(BuildPrompt(detail), "unidentified") {
		t.Fatal("unnamed patient must appear as unidentified")
	}
}

func TestTruncateToBudget(t *testing.T) {
	if _, err := tiktoken.GetEncoding("o200k_base"); err != nil {
		t.Skipf("token encoding unavailable: %v", err)
	}

	long := strings.Repeat("forensic dental evidence correlation ", 5000)
	truncated := truncateToBudget(long, 100)
	if len(truncated) >= len(long) {
		t.Fatal("expected truncation")
	}
	if !strings.HasPrefix(long, truncated) {
		t.Fatal("truncation must keep the prompt prefix")
	}

	short := "short prompt"
	if got := truncateToBudget(short, 100); got != short {
		t.Fatalf("short prompt must be untouched, got %q", got)
	}
}
