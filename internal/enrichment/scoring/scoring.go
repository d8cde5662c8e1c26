// Package scoring turns an enrichment payload into bounded intelligence
// scores. Every function is pure: the payload's fetched_at is the only clock,
// so rescoring a stored payload always yields the same result.
package scoring

import (
	"math"

	"outreach_backend/internal/enrichment/payload"
)

// Version is stored with every score set. Bump it when any rule changes.
const Version = "2026.10-1"

const neutral = 50

// ContactScores are the person level scores.
type ContactScores struct {
	Seniority       int        `json:"seniority"`
	BuyingPower     int        `json:"buyingPower"`
	Urgency         int        `json:"urgency"`
	RolePower       int        `json:"rolePower"`
	CareerMomentum  int        `json:"careerMomentum"`
	CareerStability int        `json:"careerStability"`
	BuyerLikelihood int        `json:"buyerLikelihood"`
	Readiness       int        `json:"readiness"`
	Opportunity     int        `json:"opportunity"`
	Persona         Persona    `json:"persona"`
	Department      Department `json:"department,omitempty"`
	SeniorityLabel  string     `json:"seniorityLabel"`
}

// CompanyScores are the organization level scores.
type CompanyScores struct {
	Health         int `json:"health"`
	Growth         int `json:"growth"`
	Stability      int `json:"stability"`
	MarketPosition int `json:"marketPosition"`
	Readiness      int `json:"readiness"`
}

// Result is everything Score derives from one payload.
type Result struct {
	Version string         `json:"version"`
	Contact ContactScores  `json:"contact"`
	Company *CompanyScores `json:"company,omitempty"`
}

// Score runs every extractor. Company scores are nil without an organization,
// in which case opportunity uses a neutral company readiness.
func Score(p payload.Payload) Result {
	person := p.Person
	bucket := PersonBucket(person)
	dept := PersonDepartment(person)
	seniority := bucket.Score()

	c := ContactScores{
		Seniority:       seniority,
		BuyingPower:     BuyingPower(p),
		Urgency:         Urgency(p),
		RolePower:       RolePower(person),
		CareerMomentum:  CareerMomentum(p),
		CareerStability: CareerStability(p),
		BuyerLikelihood: BuyerLikelihood(person),
		Persona:         ClassifyPersona(seniority, dept),
		Department:      dept,
		SeniorityLabel:  bucket.String(),
	}
	c.Readiness = Readiness(c.Urgency, c.BuyingPower, c.BuyerLikelihood)

	result := Result{Version: Version}
	companyReadiness := neutral
	if org := p.Organization; org != nil {
		cs := CompanyScores{
			Health:         Health(*org),
			Growth:         Growth(*org, p.FetchedAt),
			Stability:      Stability(*org, p.FetchedAt),
			MarketPosition: MarketPosition(*org),
		}
		cs.Readiness = CompanyReadiness(cs.Growth, cs.Health, cs.Stability, cs.MarketPosition)
		companyReadiness = cs.Readiness
		result.Company = &cs
	}
	c.Opportunity = Opportunity(c.Persona, c.Readiness, companyReadiness)
	result.Contact = c
	return result
}

type term struct {
	weight float64
	score  int
}

func weighted(terms ...term) int {
	var sum float64
	for _, t := range terms {
		sum += t.weight * float64(t.score)
	}
	return round(sum)
}

// round rounds half away from zero and clamps to [0,100]. The clamp happens
// on the float so huge or infinite inputs saturate instead of overflowing;
// NaN is neutral.
func round(v float64) int {
	if math.IsNaN(v) {
		return neutral
	}
	return clamp(int(math.Round(math.Max(0, math.Min(100, v)))))
}

func clamp(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
