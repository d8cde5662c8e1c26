package scoring

import (
	"strings"
	"time"

	"outreach_backend/internal/enrichment/payload"
)

// Health is driven by 12 month headcount growth, adjusted by revenue per employee.
func Health(org payload.Organization) int {
	score := neutral
	if g := org.HeadcountGrowth12m; g != nil {
		switch {
		case *g >= 0.30:
			score = 90
		case *g >= 0.15:
			score = 80
		case *g >= 0.05:
			score = 70
		case *g >= 0:
			score = 60
		case *g >= -0.10:
			score = 40
		default:
			score = 25
		}
	}
	if org.AnnualRevenue != nil && *org.AnnualRevenue > 0 &&
		org.EstimatedEmployees != nil && *org.EstimatedEmployees > 0 {
		perEmployee := float64(*org.AnnualRevenue) / float64(*org.EstimatedEmployees)
		switch {
		case perEmployee >= 250_000:
			score += 10
		case perEmployee < 50_000:
			score -= 10
		}
	}
	return clamp(score)
}

// Growth = 50 + 200 * (0.5 g12 + 0.3 g6 + 0.2 g24), +10 when funded within a year.
func Growth(org payload.Organization, ref time.Time) int {
	g := 0.5*value(org.HeadcountGrowth12m) + 0.3*value(org.HeadcountGrowth6m) + 0.2*value(org.HeadcountGrowth24m)
	score := float64(neutral) + 200*g
	if days, ok := daysSince(ref, org.LatestFundingAt); ok && days <= 365 {
		score += 10
	}
	return round(score)
}

// Stability is driven by company age, adjusted by size and public listing.
func Stability(org payload.Organization, ref time.Time) int {
	score := neutral
	if org.FoundedYear != nil && *org.FoundedYear > 0 && !ref.IsZero() {
		switch age := ref.Year() - *org.FoundedYear; {
		case age >= 20:
			score = 90
		case age >= 10:
			score = 75
		case age >= 5:
			score = 60
		case age >= 2:
			score = 45
		default:
			score = 30
		}
	}
	if n := org.EstimatedEmployees; n != nil && *n > 0 {
		switch {
		case *n >= 1000:
			score += 10
		case *n < 10:
			score -= 10
		}
	}
	if strings.TrimSpace(org.PublicTicker) != "" {
		score += 5
	}
	return clamp(score)
}

// MarketPosition ranks by revenue, or by headcount when revenue is unknown.
func MarketPosition(org payload.Organization) int {
	if r := org.AnnualRevenue; r != nil && *r > 0 {
		switch {
		case *r >= 1_000_000_000:
			return 95
		case *r >= 100_000_000:
			return 80
		case *r >= 10_000_000:
			return 65
		case *r >= 1_000_000:
			return 45
		default:
			return 30
		}
	}
	if n := org.EstimatedEmployees; n != nil && *n > 0 {
		switch {
		case *n >= 10000:
			return 90
		case *n >= 1000:
			return 75
		case *n >= 200:
			return 60
		case *n >= 50:
			return 45
		default:
			return 30
		}
	}
	return neutral
}

// CompanyReadiness = 0.35 growth + 0.25 health + 0.20 stability + 0.20 market position.
func CompanyReadiness(growth, health, stability, marketPosition int) int {
	return weighted(
		term{0.35, growth},
		term{0.25, health},
		term{0.20, stability},
		term{0.20, marketPosition},
	)
}

func value(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
