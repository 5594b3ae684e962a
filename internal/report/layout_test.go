package report

import (
	"strings"
	"testing"
	"time"

	"forensia/internal/db"
)

func headings(blocks []Block) []string {
	var out []string
	for _, b := range blocks {
		if b.Kind == BlockHeading {
			out = append(out, b.Text)
		}
	}
	return out
}

func findBlock(blocks []Block, kind BlockKind, contains string) *Block {
	for i, b := range blocks {
		if b.Kind == kind && strings.Contains(b.Text, contains) {
			return &blocks[i]
		}
	}
	return nil
}

func testCase() db.Case {
	return db.Case{
		ID:          "case-1",
		Title:       "Skeletal remains, riverbank",
		Description: "Partial remains recovered downstream.",
		Category:    db.CaseIdentification,
		Status:      db.CaseInProgress,
		OpenedAt:    time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
	}
}

func TestBuildLayoutSectionOrder(t *testing.T) {
	name := "A. Subject"
	data := DocumentData{
		Case:     testCase(),
		Patients: []db.Patient{{ID: "p1", Name: &name, NIC: "N-1", Gender: "female", Age: 34}},
		Evidence: []db.Evidence{{ID: "e1", Kind: db.EvidenceText, Content: "bite mark photo set"}},
		NarrativeText: "Automated summary.",
		GeneratedAt:   time.Now(),
	}

	got := headings(BuildLayout(data))
	want := []string{
		"1. CASE DATA",
		"2. PATIENTS / VICTIMS",
		"3. COLLECTED EVIDENCE AND ANALYSES",
		"4. PRELIMINARY ANALYSIS (AI-generated)",
		"5. CONCLUSION",
	}
	if len(got) != len(want) {
		t.Fatalf("headings = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("heading[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBuildLayoutSkipsEmptySections(t *testing.T) {
	data := DocumentData{Case: testCase(), GeneratedAt: time.Now()}

	got := headings(BuildLayout(data))
	for _, h := range got {
		if strings.Contains(h, "PATIENTS") || strings.Contains(h, "EVIDENCE") {
			t.Fatalf("empty section rendered: %q", h)
		}
	}
	// Analysis and conclusion always render.
	if len(got) != 3 {
		t.Fatalf("headings = %v, want case data, analysis and conclusion", got)
	}
}

func TestBuildLayoutCoordinatesLatitudeFirst(t *testing.T) {
	data := DocumentData{
		Case: testCase(),
		Evidence: []db.Evidence{{
			ID:       "e1",
			Kind:     db.EvidenceImage,
			Location: &db.Geo{Longitude: 10.5, Latitude: -20.3},
		}},
		GeneratedAt: time.Now(),
	}

	blocks := BuildLayout(data)
	var coord *Block
	for i, b := range blocks {
		if b.Kind == BlockField && strings.Contains(b.Label, "Coordinates") {
			coord = &blocks[i]
		}
	}
	if coord == nil {
		t.Fatal("no coordinates field rendered")
	}
	if coord.Text != "-20.3, 10.5" {
		t.Fatalf("coordinates = %q, want \"-20.3, 10.5\"", coord.Text)
	}
}

func TestBuildLayoutChart(t *testing.T) {
	name := "B. Subject"
	data := DocumentData{
		Case: testCase(),
		Patients: []db.Patient{{
			ID:   "p1",
			Name: &name,
			Chart: db.Chart{
				"32":    db.ScalarValue("intact"),
				"11":    db.GroupValue(map[string]string{"surface_condition": "worn", "color": "stained"}),
				"notes": db.ScalarValue("never rendered"),
			},
		}},
		GeneratedAt: time.Now(),
	}

	blocks := BuildLayout(data)

	var teeth []string
	for _, b := range blocks {
		if b.Kind == BlockChartTooth {
			teeth = append(teeth, b.Text)
		}
	}
	want := []string{"Tooth 11:", "Tooth 32:"}
	if len(teeth) != len(want) {
		t.Fatalf("teeth = %v, want %v", teeth, want)
	}
	for i := range want {
		if teeth[i] != want[i] {
			t.Fatalf("teeth[%d] = %q, want %q (ascending numeric order)", i, teeth[i], want[i])
		}
	}

	detail := findBlock(blocks, BlockChartDetail, "Surface condition")
	if detail == nil {
		t.Fatal("group detail not rendered")
	}
	// Group findings are key-sorted and semicolon joined.
	if detail.Text != "Color: stained; Surface condition: worn" {
		t.Fatalf("detail = %q", detail.Text)
	}

	if findBlock(blocks, BlockChartDetail, "never rendered") != nil {
		t.Fatal("non-numeric chart key must not render")
	}
}

func TestBuildLayoutChartGroupList(t *testing.T) {
	data := DocumentData{
		Case: testCase(),
		Patients: []db.Patient{{
			ID: "p1",
			Chart: db.Chart{
				"18": db.GroupListValue([]map[string]string{
					{"procedure": "filling"},
					{"procedure": "crown"},
					{"procedure": "extraction"},
				}),
			},
		}},
		GeneratedAt: time.Now(),
	}

	blocks := BuildLayout(data)
	var details []string
	for _, b := range blocks {
		if b.Kind == BlockChartDetail {
			details = append(details, b.Text)
		}
	}
	if len(details) != 3 {
		t.Fatalf("expected one detail line per group, got %v", details)
	}
	if details[0] != "Procedure: filling" || details[2] != "Procedure: extraction" {
		t.Fatalf("group list order not preserved: %v", details)
	}
}

func TestBuildLayoutUnidentifiedPatient(t *testing.T) {
	data := DocumentData{
		Case:        testCase(),
		Patients:    []db.Patient{{ID: "p1", NIC: "N-9"}},
		GeneratedAt: time.Now(),
	}

	blocks := BuildLayout(data)
	if findBlock(blocks, BlockSubheading, "Unidentified") == nil {
		t.Fatal("unnamed patient must render as Unidentified")
	}
	if findBlock(blocks, BlockField, "Not provided") == nil {
		t.Fatal("missing optional fields must render as Not provided")
	}
}

func TestBuildLayoutNarrative(t *testing.T) {
	t.Run("unavailable notice when no narrative", func(t *testing.T) {
		blocks := BuildLayout(DocumentData{Case: testCase(), GeneratedAt: time.Now()})
		if findBlock(blocks, BlockNote, NoticeUnavailable) == nil {
			t.Fatal("unavailable notice missing")
		}
	})

	t.Run("narrative text renders as paragraph", func(t *testing.T) {
		blocks := BuildLayout(DocumentData{
			Case:          testCase(),
			NarrativeText: "Generated analysis paragraph.",
			GeneratedAt:   time.Now(),
		})
		if findBlock(blocks, BlockParagraph, "Generated analysis paragraph.") == nil {
			t.Fatal("narrative paragraph missing")
		}
		if findBlock(blocks, BlockNote, NoticeUnavailable) != nil {
			t.Fatal("unavailable notice must not render alongside a narrative")
		}
	})

	t.Run("disclaimer always present", func(t *testing.T) {
		for _, narrative := range []string{"", "some text"} {
			blocks := BuildLayout(DocumentData{Case: testCase(), NarrativeText: narrative, GeneratedAt: time.Now()})
			if findBlock(blocks, BlockFootnote, "reviewed and validated") == nil {
				t.Fatalf("disclaimer missing (narrative=%q)", narrative)
			}
		}
	})
}

func TestBuildLayoutEvidenceImages(t *testing.T) {
	data := DocumentData{
		Case: testCase(),
		Evidence: []db.Evidence{{
			ID:       "e1",
			Kind:     db.EvidenceImage,
			FileKeys: []string{"cases/c1/evidence/a.jpg", "cases/c1/evidence/b.png"},
		}},
		GeneratedAt: time.Now(),
	}

	blocks := BuildLayout(data)
	var images []string
	for _, b := range blocks {
		if b.Kind == BlockImage {
			images = append(images, b.ImageKey)
		}
	}
	if len(images) != 2 {
		t.Fatalf("images = %v, want both file keys", images)
	}
}

func TestBuildLayoutSignatureAndTimestamp(t *testing.T) {
	at := time.Date(2025, 6, 2, 15, 4, 5, 0, time.UTC)
	blocks := BuildLayout(DocumentData{Case: testCase(), GeneratedAt: at})

	if findBlock(blocks, BlockSignature, SignatureCaption) == nil {
		t.Fatal("signature block missing")
	}
	if findBlock(blocks, BlockFootnote, "02 Jun 2025") == nil {
		t.Fatal("generation timestamp missing")
	}
}

func TestTitleize(t *testing.T) {
	tests := []struct{ in, want string }{
		{"in_progress", "In Progress"},
		{"identification", "Identification"},
		{"surface_condition", "Surface Condition"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := titleize(tt.in); got != tt.want {
			t.Fatalf("titleize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
