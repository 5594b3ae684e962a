// Package report compiles a case snapshot into a printable dossier. The
// compiler is split in two stages: BuildLayout produces an ordered block
// sequence from entity state, and Renderer turns blocks into PDF bytes.
// Section ordering and numbering live entirely in the first stage.
package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"forensia/internal/db"
)

// Fixed texts rendered into every document.
const (
	DocumentTitle = "FORENSIC DENTAL REPORT"

	// NoticeUnavailable is rendered in the analysis section when no
	// narrative service is configured. Distinct from the gateway's failure
	// placeholders on purpose.
	NoticeUnavailable = "Automated preliminary analysis is not available for this report."

	Disclaimer = "Note: the text above was generated automatically and must be " +
		"reviewed and validated by the responsible forensic examiner."

	Conclusion = "This report consolidates the case data, the records of the " +
		"patients and victims involved, and the collected evidence as registered " +
		"in the system at the time of generation. The findings herein are " +
		"preliminary and subject to revision as the investigation progresses."

	SignatureCaption = "Responsible forensic examiner"
)

type BlockKind int

const (
	BlockLogo BlockKind = iota
	BlockTitle
	BlockHeading
	BlockSubheading
	BlockField
	BlockLabel
	BlockParagraph
	BlockBullet
	BlockChartTooth
	BlockChartDetail
	BlockImage
	BlockNote
	BlockFootnote
	BlockSignature
	BlockSpacer
	BlockPageBreak
)

// Block is one renderable unit. Which fields are meaningful depends on Kind:
// Text carries body copy, Label the bold prefix of a field line, ImageKey an
// object-store key, Gap a spacer height in millimeters.
type Block struct {
	Kind     BlockKind
	Text     string
	Label    string
	ImageKey string
	Gap      float64
}

// DocumentData is the full input of one compilation. NarrativeText empty
// means no narrative service is configured; failure placeholders arrive here
// as ordinary text.
type DocumentData struct {
	Case          db.Case
	Patients      []db.Patient
	Evidence      []db.Evidence
	NarrativeText string
	GeneratedAt   time.Time
	LogoKey       string
}

// BuildLayout produces the document's block sequence. The section order is
// fixed: case data, patients, evidence, automated analysis, conclusion.
// Patient and evidence sections are skipped entirely when empty, but the
// analysis and conclusion sections always render.
func BuildLayout(data DocumentData) []Block {
	var blocks []Block

	if data.LogoKey != "" {
		blocks = append(blocks, Block{Kind: BlockLogo, ImageKey: data.LogoKey})
	}
	blocks = append(blocks,
		Block{Kind: BlockTitle, Text: DocumentTitle},
		Block{Kind: BlockSpacer, Gap: 4},
	)

	blocks = append(blocks, caseSection(data.Case)...)
	blocks = append(blocks, patientsSection(data.Patients)...)
	blocks = append(blocks, evidenceSection(data.Evidence)...)
	blocks = append(blocks, analysisSection(data.NarrativeText)...)
	blocks = append(blocks, conclusionSection(data.GeneratedAt)...)

	return blocks
}

func caseSection(c db.Case) []Block {
	blocks := []Block{
		{Kind: BlockHeading, Text: "1. CASE DATA"},
		{Kind: BlockField, Label: "Case no.:", Text: c.ID},
		{Kind: BlockField, Label: "Title:", Text: c.Title},
		{Kind: BlockField, Label: "Category:", Text: titleize(string(c.Category))},
		{Kind: BlockField, Label: "Status:", Text: titleize(string(c.Status))},
		{Kind: BlockField, Label: "Opened:", Text: c.OpenedAt.Format("02 Jan 2006")},
	}
	if c.Description != "" {
		blocks = append(blocks,
			Block{Kind: BlockLabel, Text: "Case description:"},
			Block{Kind: BlockParagraph, Text: c.Description},
		)
	}
	if c.History != "" {
		blocks = append(blocks,
			Block{Kind: BlockLabel, Text: "Case history:"},
			Block{Kind: BlockParagraph, Text: c.History},
		)
	}
	return blocks
}

func patientsSection(patients []db.Patient) []Block {
	if len(patients) == 0 {
		return nil
	}

	blocks := []Block{
		{Kind: BlockPageBreak},
		{Kind: BlockHeading, Text: "2. PATIENTS / VICTIMS"},
	}
	for i, p := range patients {
		name := "Unidentified"
		if p.Identified() {
			name = *p.Name
		}
		blocks = append(blocks,
			Block{Kind: BlockSpacer, Gap: 3},
			Block{Kind: BlockSubheading, Text: fmt.Sprintf("2.%d - %s", i+1, name)},
			Block{Kind: BlockField, Label: "NIC:", Text: p.NIC},
			Block{Kind: BlockField, Label: "Gender:", Text: p.Gender},
			Block{Kind: BlockField, Label: "Age:", Text: strconv.Itoa(int(p.Age))},
			Block{Kind: BlockField, Label: "Document:", Text: orNotProvided(p.Document)},
			Block{Kind: BlockField, Label: "Address:", Text: orNotProvided(p.Address)},
		)
		if p.AnatomicalNotes != "" {
			blocks = append(blocks,
				Block{Kind: BlockLabel, Text: "Anatomical notes:"},
				Block{Kind: BlockParagraph, Text: p.AnatomicalNotes},
			)
		}
		blocks = append(blocks, chartBlocks(p.Chart)...)
	}
	return blocks
}

// chartBlocks renders the tooth-indexed entries of a chart in ascending
// numeric order. Non-numeric keys are bookkeeping and never printed.
func chartBlocks(chart db.Chart) []Block {
	keys := chart.NumericKeys()
	if len(keys) == 0 {
		return nil
	}

	blocks := []Block{{Kind: BlockLabel, Text: "Dental chart:"}}
	for _, key := range keys {
		blocks = append(blocks, Block{Kind: BlockChartTooth, Text: fmt.Sprintf("Tooth %s:", key)})
		blocks = append(blocks, chartValueBlocks(chart[key])...)
	}
	return blocks
}

func chartValueBlocks(v db.ChartValue) []Block {
	switch v.Kind {
	case db.ChartGroup:
		return []Block{{Kind: BlockChartDetail, Text: formatGroup(v.Group)}}
	case db.ChartGroupList:
		blocks := make([]Block, 0, len(v.Groups))
		for _, g := range v.Groups {
			blocks = append(blocks, Block{Kind: BlockChartDetail, Text: formatGroup(g)})
		}
		return blocks
	default:
		if v.Scalar == "" {
			return nil
		}
		return []Block{{Kind: BlockChartDetail, Text: v.Scalar}}
	}
}

// formatGroup joins a group's findings as "Label: value" pairs in key order.
func formatGroup(group map[string]string) string {
	keys := make([]string, 0, len(group))
	for k := range group {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", titleize(k), group[k]))
	}
	return strings.Join(parts, "; ")
}

func evidenceSection(evidence []db.Evidence) []Block {
	if len(evidence) == 0 {
		return nil
	}

	blocks := []Block{
		{Kind: BlockPageBreak},
		{Kind: BlockHeading, Text: "3. COLLECTED EVIDENCE AND ANALYSES"},
	}
	for i, e := range evidence {
		blocks = append(blocks,
			Block{Kind: BlockSpacer, Gap: 3},
			Block{Kind: BlockSubheading, Text: fmt.Sprintf("3.%d - Evidence (%s)", i+1, e.Kind)},
		)
		if e.Address != nil && *e.Address != "" {
			blocks = append(blocks, Block{Kind: BlockField, Label: "Address:", Text: *e.Address})
		}
		if e.Location != nil {
			blocks = append(blocks, Block{
				Kind:  BlockField,
				Label: "Coordinates (lat, lon):",
				Text:  formatCoordinates(*e.Location),
			})
		}
		if e.Content != "" {
			blocks = append(blocks,
				Block{Kind: BlockLabel, Text: "Description / content:"},
				Block{Kind: BlockParagraph, Text: e.Content},
			)
		}
		if len(e.Annotations) > 0 {
			blocks = append(blocks, Block{Kind: BlockLabel, Text: "Evidence annotations:"})
			for _, a := range e.Annotations {
				blocks = append(blocks, Block{Kind: BlockBullet, Text: a})
			}
		}
		if len(e.FileKeys) > 0 {
			blocks = append(blocks, Block{Kind: BlockLabel, Text: "Image files:"})
			for _, key := range e.FileKeys {
				blocks = append(blocks, Block{Kind: BlockImage, ImageKey: key})
			}
		}
	}
	return blocks
}

// formatCoordinates prints latitude first, the convention readers expect,
// regardless of the stored longitude-first order.
func formatCoordinates(g db.Geo) string {
	return fmt.Sprintf("%s, %s",
		strconv.FormatFloat(g.Latitude, 'f', -1, 64),
		strconv.FormatFloat(g.Longitude, 'f', -1, 64),
	)
}

func analysisSection(narrative string) []Block {
	blocks := []Block{
		{Kind: BlockPageBreak},
		{Kind: BlockHeading, Text: "4. PRELIMINARY ANALYSIS (AI-generated)"},
	}
	if narrative == "" {
		blocks = append(blocks, Block{Kind: BlockNote, Text: NoticeUnavailable})
	} else {
		blocks = append(blocks, Block{Kind: BlockParagraph, Text: narrative})
	}
	blocks = append(blocks,
		Block{Kind: BlockSpacer, Gap: 2},
		Block{Kind: BlockFootnote, Text: Disclaimer},
	)
	return blocks
}

func conclusionSection(generatedAt time.Time) []Block {
	return []Block{
		{Kind: BlockSpacer, Gap: 8},
		{Kind: BlockHeading, Text: "5. CONCLUSION"},
		{Kind: BlockParagraph, Text: Conclusion},
		{Kind: BlockSpacer, Gap: 20},
		{Kind: BlockSignature, Text: SignatureCaption},
		{Kind: BlockSpacer, Gap: 6},
		{Kind: BlockFootnote, Text: "Generated at: " + generatedAt.Format("02 Jan 2006 15:04:05 MST")},
	}
}

func orNotProvided(s *string) string {
	if s == nil || *s == "" {
		return "Not provided"
	}
	return *s
}

// titleize turns snake_case identifiers into display labels.
func titleize(s string) string {
	words := strings.Split(strings.ReplaceAll(s, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
