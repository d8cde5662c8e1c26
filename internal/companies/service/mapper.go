package service

import (
	"outreach_backend/internal/companies/repository"
	"outreach_backend/internal/companies/transport"
)

// ToResponse maps a stored company to its API shape.
func ToResponse(c repository.Company) transport.CompanyResponse {
	competitors := c.Competitors
	if competitors == nil {
		competitors = []string{}
	}
	return transport.CompanyResponse{
		ID:                 c.ID,
		Name:               c.Name,
		Domain:             c.Domain,
		WebsiteURL:         c.WebsiteURL,
		Industry:           c.Industry,
		Headcount:          c.Headcount,
		AnnualRevenue:      c.AnnualRevenue,
		TotalFunding:       c.TotalFunding,
		LatestFundingStage: c.LatestFundingStage,
		LatestFundingAt:    c.LatestFundingAt,
		FoundedYear:        c.FoundedYear,
		PublicTicker:       c.PublicTicker,
		Scores: transport.CompanyScoresResponse{
			Health:         c.HealthScore,
			Growth:         c.GrowthScore,
			Stability:      c.StabilityScore,
			MarketPosition: c.MarketPositionScore,
			Readiness:      c.ReadinessScore,
		},
		Positioning: transport.PositioningResponse{
			Category:      c.PositioningCategory,
			Industry:      c.PositioningIndustry,
			Label:         c.PositioningLabel,
			Competitors:   competitors,
			RevenueTier:   c.RevenueTier,
			HeadcountTier: c.HeadcountTier,
			Source:        c.PositioningSource,
		},
		EnrichedAt: c.EnrichedAt,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}
