package service

import (
	"time"

	"outreach_backend/internal/cadence/calculator"
	"outreach_backend/internal/contacts/repository"
	"outreach_backend/internal/contacts/transport"
)

// ToResponse maps a stored contact to its API shape. now decides whether
// the contact is due.
func ToResponse(c repository.Contact, now time.Time) transport.ContactResponse {
	return transport.ContactResponse{
		ID:               c.ID,
		CompanyID:        c.CompanyID,
		CompanyName:      c.CompanyName,
		FirstName:        c.FirstName,
		LastName:         c.LastName,
		Email:            c.Email,
		Phone:            c.Phone,
		Title:            c.Title,
		Department:       c.Department,
		SeniorityLabel:   c.SeniorityLabel,
		LinkedInURL:      c.LinkedInURL,
		City:             c.City,
		Country:          c.Country,
		Notes:            c.Notes,
		RelationshipTier: c.RelationshipTier,
		PipelineStage:    c.PipelineStage,
		Persona:          c.Persona,
		Scores: transport.ScoresResponse{
			Seniority:       c.SeniorityScore,
			BuyingPower:     c.BuyingPowerScore,
			Urgency:         c.UrgencyScore,
			RolePower:       c.RolePowerScore,
			CareerMomentum:  c.CareerMomentumScore,
			CareerStability: c.CareerStabilityScore,
			BuyerLikelihood: c.BuyerLikelihoodScore,
			Readiness:       c.ReadinessScore,
			Opportunity:     c.OpportunityScore,
			Version:         c.ScoreVersion,
		},
		Cadence: transport.CadenceResponse{
			LastContactedAt: c.LastContactedAt,
			NextContactAt:   c.NextContactAt,
			OverrideAt:      c.NextContactOverrideAt,
			DoNotContact:    c.DoNotContactAgain,
			Due:             !c.DoNotContactAgain && calculator.IsDue(c.NextContactAt, now),
			OverdueDays:     calculator.OverdueDays(c.NextContactAt, now),
		},
		EnrichedAt: c.EnrichedAt,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

// ToResponses maps a slice of contacts.
func ToResponses(items []repository.Contact, now time.Time) []transport.ContactResponse {
	out := make([]transport.ContactResponse, 0, len(items))
	for _, c := range items {
		out = append(out, ToResponse(c, now))
	}
	return out
}
