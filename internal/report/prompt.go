package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"forensia/internal/db"

	"github.com/pkoukk/tiktoken-go"
)

// promptTokenBudget bounds the prompt sent to the narrative service.
const promptTokenBudget = 6000

// BuildPrompt assembles the narrative-service prompt from the current case,
// patient and evidence state, and truncates it to the token budget.
func BuildPrompt(detail db.CaseDetail) string {
	var b strings.Builder

	b.WriteString("Act as a forensic odontologist and write a concise, objective preliminary ")
	b.WriteString("technical analysis in a single paragraph, based on the following case data. ")
	b.WriteString("Correlate the findings and stick to the facts presented.\n\n")

	b.WriteString("--- CASE DATA ---\n")
	fmt.Fprintf(&b, "Title: %s\n", detail.Case.Title)
	fmt.Fprintf(&b, "Description: %s\n\n", detail.Case.Description)

	if len(detail.Patients) > 0 {
		b.WriteString("--- PATIENTS INVOLVED ---\n")
		for _, p := range detail.Patients {
			name := "unidentified"
			if p.Identified() {
				name = *p.Name
			}
			chart, _ := json.Marshal(p.Chart)
			fmt.Fprintf(&b, "- Name: %s, Age: %d, Gender: %s. Notes: %s. Dental chart: %s\n",
				name, p.Age, p.Gender, p.AnatomicalNotes, chart)
		}
		b.WriteString("\n")
	}

	if len(detail.Evidence) > 0 {
		b.WriteString("--- COLLECTED EVIDENCE ---\n")
		for _, e := range detail.Evidence {
			content := e.Content
			if content == "" {
				content = "N/A"
			}
			address := "N/A"
			if e.Address != nil && *e.Address != "" {
				address = *e.Address
			}
			fmt.Fprintf(&b, "- Kind: %s. Description: %s. Location: %s\n", e.Kind, content, address)
		}
	}

	return truncateToBudget(b.String(), promptTokenBudget)
}

func truncateToBudget(prompt string, budget int) string {
	enc, err := tiktoken.GetEncoding("o200k_base")
	if err != nil {
		return prompt
	}
	tokens := enc.Encode(prompt, nil, nil)
	if len(tokens) <= budget {
		return prompt
	}
	return enc.Decode(tokens[:budget])
}
