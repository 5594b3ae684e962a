package db

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestChartUnmarshalClassification(t *testing.T) {
	raw := `{
		"11": "intact",
		"18": {"condition": "fractured", "surface": "mesial"},
		"32": [{"procedure": "filling"}, {"procedure": "extraction"}, "stray"],
		"48": 2.5,
		"notes": "non numeric keys are kept but never rendered"
	}`

	var chart Chart
	if err := json.Unmarshal([]byte(raw), &chart); err != nil {
		t.Fatalf("unmarshal chart: %v", err)
	}

	if got := chart["11"]; got.Kind != ChartScalar || got.Scalar != "intact" {
		t.Fatalf("entry 11 = %+v, want scalar \"intact\"", got)
	}
	if got := chart["48"]; got.Kind != ChartScalar || got.Scalar != "2.5" {
		t.Fatalf("entry 48 = %+v, want scalar \"2.5\"", got)
	}

	group := chart["18"]
	if group.Kind != ChartGroup {
		t.Fatalf("entry 18 kind = %v, want group", group.Kind)
	}
	if group.Group["condition"] != "fractured" || group.Group["surface"] != "mesial" {
		t.Fatalf("entry 18 group = %v", group.Group)
	}

	list := chart["32"]
	if list.Kind != ChartGroupList {
		t.Fatalf("entry 32 kind = %v, want group list", list.Kind)
	}
	// The non-object element is dropped.
	if len(list.Groups) != 2 {
		t.Fatalf("entry 32 has %d groups, want 2", len(list.Groups))
	}
}

func TestChartNumericKeys(t *testing.T) {
	chart := Chart{
		"32":       ScalarValue("a"),
		"11":       ScalarValue("b"),
		"18":       ScalarValue("c"),
		"notes":    ScalarValue("skip"),
		"overview": ScalarValue("skip"),
	}

	want := []string{"11", "18", "32"}
	if got := chart.NumericKeys(); !reflect.DeepEqual(got, want) {
		t.Fatalf("NumericKeys() = %v, want %v", got, want)
	}
}

func TestChartRoundTrip(t *testing.T) {
	chart := Chart{
		"11": ScalarValue("intact"),
		"18": GroupValue(map[string]string{"condition": "caries"}),
		"32": GroupListValue([]map[string]string{{"procedure": "filling"}}),
	}

	data, err := json.Marshal(chart)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Chart
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(chart, back) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", back, chart)
	}
}

func TestPageClamping(t *testing.T) {
	tests := []struct {
		name       string
		number     int
		limit      int
		wantNumber int32
		wantLimit  int32
		wantOffset int32
	}{
		{"defaults", 0, 0, 1, 10, 0},
		{"negative page", -5, 20, 1, 20, 0},
		{"limit capped", 2, 500, 2, 100, 100},
		{"normal", 3, 25, 3, 25, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPage(tt.number, tt.limit)
			if p.Number != tt.wantNumber || p.Limit != tt.wantLimit {
				t.Fatalf("NewPage(%d, %d) = %+v", tt.number, tt.limit, p)
			}
			if got := p.Offset(); got != tt.wantOffset {
				t.Fatalf("Offset() = %d, want %d", got, tt.wantOffset)
			}
		})
	}
}

func TestPageTotalPages(t *testing.T) {
	p := NewPage(1, 10)
	tests := []struct {
		total int64
		want  int64
	}{
		{0, 0},
		{1, 1},
		{10, 1},
		{11, 2},
		{100, 10},
	}
	for _, tt := range tests {
		if got := p.TotalPages(tt.total); got != tt.want {
			t.Fatalf("TotalPages(%d) = %d, want %d", tt.total, got, tt.want)
		}
	}
}

func TestPatientIdentified(t *testing.T) {
	name := "John Doe"
	empty := ""

	tests := []struct {
		name    string
		patient Patient
		want    bool
	}{
		{"named", Patient{Name: &name}, true},
		{"nil name", Patient{}, false},
		{"empty name", Patient{Name: &empty}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.patient.Identified(); got != tt.want {
				t.Fatalf("Identified() = %t, want %t", got, tt.want)
			}
		})
	}
}

func TestPatientMarshalAddsIdentified(t *testing.T) {
	name := "Jane Roe"
	data, err := json.Marshal(Patient{ID: "p1", Name: &name})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["identified"] != true {
		t.Fatalf("identified = %v, want true", out["identified"])
	}
}
