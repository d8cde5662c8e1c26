package scoring

import (
	"strings"

	"outreach_backend/internal/enrichment/payload"
)

// Department is the functional area used by buying power, role power and persona.
type Department string

const (
	DepartmentUnknown     Department = ""
	DepartmentExecutive   Department = "executive"
	DepartmentFinance     Department = "finance"
	DepartmentOperations  Department = "operations"
	DepartmentEngineering Department = "engineering"
	DepartmentSales       Department = "sales_marketing"
	DepartmentOther       Department = "other"
)

// Score is the department's weight in buying power and role power.
func (d Department) Score() int {
	switch d {
	case DepartmentExecutive:
		return 100
	case DepartmentFinance:
		return 90
	case DepartmentOperations:
		return 80
	case DepartmentEngineering:
		return 75
	case DepartmentSales:
		return 70
	default:
		return neutral
	}
}

func classifyDepartmentValue(value string) Department {
	v := strings.ToLower(strings.TrimSpace(value))
	switch {
	case v == "":
		return DepartmentUnknown
	case strings.Contains(v, "c_suite"), strings.Contains(v, "executive"):
		return DepartmentExecutive
	case strings.Contains(v, "finance"), strings.Contains(v, "accounting"):
		return DepartmentFinance
	case strings.Contains(v, "operations"):
		return DepartmentOperations
	case strings.Contains(v, "engineering"), strings.Contains(v, "information_technology"), v == "it":
		return DepartmentEngineering
	case strings.Contains(v, "sales"), strings.Contains(v, "marketing"):
		return DepartmentSales
	default:
		return DepartmentOther
	}
}

var titleDepartments = []struct {
	dept     Department
	keywords [][]string
}{
	{DepartmentExecutive, tokenizeAll("ceo", "founder", "president", "managing director", "general manager")},
	{DepartmentFinance, tokenizeAll("cfo", "finance", "financial", "controller", "accounting", "treasurer", "procurement", "purchasing")},
	{DepartmentEngineering, tokenizeAll("cto", "cio", "ciso", "engineering", "engineer", "developer", "it", "technology", "software", "infrastructure", "security")},
	{DepartmentOperations, tokenizeAll("coo", "operations", "supply chain", "logistics")},
	{DepartmentSales, tokenizeAll("cmo", "cro", "sales", "marketing", "growth", "revenue", "business development")},
}

// PersonDepartment picks the highest weighted department the provider lists.
// Without provider departments the title is used.
func PersonDepartment(p payload.Person) Department {
	best := DepartmentUnknown
	for _, raw := range p.Departments {
		d := classifyDepartmentValue(raw)
		if d == DepartmentUnknown {
			continue
		}
		if best == DepartmentUnknown || d.Score() > best.Score() {
			best = d
		}
	}
	if best != DepartmentUnknown {
		return best
	}

	tokens := tokenize(p.Title)
	if len(tokens) == 0 {
		return DepartmentUnknown
	}
	for _, td := range titleDepartments {
		if hasAnyKeyword(tokens, td.keywords) {
			return td.dept
		}
	}
	return DepartmentOther
}
