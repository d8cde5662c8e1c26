package positioning

import (
	"fmt"
	"strings"
)

// Instruction is the system instruction of the positioning agent.
var Instruction = fmt.Sprintf(`You are a B2B market analyst. Classify the company you are given.
Respond with a single JSON object and nothing else:
{"category": string, "industry": string, "label": string, "competitors": [string]}
- category must be one of: %s
- industry must be one of: %s
- label is a short positioning phrase of at most 60 characters
- competitors lists at most 3 real competitor company names, never the company itself
If you are unsure about a field, use an empty string or an empty list.`,
	strings.Join(Categories, ", "), strings.Join(Industries, ", "))

func buildPrompt(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Company: %s\n", in.Name)
	if in.Industry != "" {
		fmt.Fprintf(&b, "Stated industry: %s\n", in.Industry)
	}
	if in.AnnualRevenue != nil && *in.AnnualRevenue > 0 {
		fmt.Fprintf(&b, "Annual revenue (USD): %d\n", *in.AnnualRevenue)
	}
	if in.Headcount != nil && *in.Headcount > 0 {
		fmt.Fprintf(&b, "Employees: %d\n", *in.Headcount)
	}
	return b.String()
}
