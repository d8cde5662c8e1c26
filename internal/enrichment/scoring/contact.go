package scoring

import (
	"sort"
	"strings"
	"time"

	"outreach_backend/internal/enrichment/payload"
)

const day = 24 * time.Hour

// companySizeScore buckets employee counts. Unknown size is neutral.
func companySizeScore(employees *int) int {
	if employees == nil || *employees <= 0 {
		return neutral
	}
	switch n := *employees; {
	case n >= 10000:
		return 100
	case n >= 1000:
		return 85
	case n >= 200:
		return 70
	case n >= 50:
		return 55
	case n >= 10:
		return 40
	default:
		return 25
	}
}

// BuyingPower = 0.60 seniority + 0.25 company size + 0.15 department.
func BuyingPower(p payload.Payload) int {
	var employees *int
	if p.Organization != nil {
		employees = p.Organization.EstimatedEmployees
	}
	return weighted(
		term{0.60, Seniority(p.Person)},
		term{0.25, companySizeScore(employees)},
		term{0.15, PersonDepartment(p.Person).Score()},
	)
}

// Urgency starts at 20 and adds buying signals: a recent job change, recent
// funding, headcount growth and open job postings. Unknown signals add nothing.
func Urgency(p payload.Payload) int {
	score := 20
	ref := p.FetchedAt

	if role := p.Person.CurrentRole(); role != nil {
		if days, ok := daysSince(ref, role.StartDate); ok {
			switch {
			case days <= 90:
				score += 30
			case days <= 180:
				score += 20
			case days <= 365:
				score += 10
			}
		}
	}

	if org := p.Organization; org != nil {
		if days, ok := daysSince(ref, org.LatestFundingAt); ok {
			switch {
			case days <= 180:
				score += 25
			case days <= 365:
				score += 15
			}
		}
		if g := org.HeadcountGrowth6m; g != nil {
			switch {
			case *g >= 0.20:
				score += 20
			case *g >= 0.10:
				score += 12
			case *g >= 0.05:
				score += 6
			case *g < 0:
				score -= 10
			}
		}
		if jobs := org.OpenJobPostings; jobs != nil {
			switch {
			case *jobs >= 10:
				score += 15
			case *jobs >= 1:
				score += 8
			}
		}
	}
	return clamp(score)
}

var decisionKeywords = tokenizeAll("budget", "procurement", "purchasing", "buyer", "owner", "head", "decision")

// RolePower = 0.70 seniority + 0.30 department, +10 for decision making titles.
func RolePower(p payload.Person) int {
	base := 0.70*float64(Seniority(p)) + 0.30*float64(PersonDepartment(p).Score())
	if hasAnyKeyword(tokenize(p.Title), decisionKeywords) {
		base += 10
	}
	return round(base)
}

// datedRoles returns the roles with a start date, oldest first.
func datedRoles(p payload.Person) []payload.Employment {
	roles := make([]payload.Employment, 0, len(p.EmploymentHistory))
	for _, e := range p.EmploymentHistory {
		if e.StartDate != nil {
			roles = append(roles, e)
		}
	}
	sort.SliceStable(roles, func(i, j int) bool {
		return roles[i].StartDate.Before(*roles[j].StartDate)
	})
	return roles
}

// CareerMomentum rewards upward moves: 50, +15 per promotion, -10 per step
// down, +10 more when the current role is a promotion started in the last two years.
func CareerMomentum(p payload.Payload) int {
	roles := datedRoles(p.Person)
	if len(roles) == 0 {
		return neutral
	}

	score := neutral
	var prev Bucket
	havePrev := false
	recentPromotion := false
	for _, role := range roles {
		b := ClassifyTitle(role.Title)
		if b == BucketUnknown {
			continue
		}
		if havePrev {
			switch {
			case b > prev:
				score += 15
				if isCurrent(role) {
					if days, ok := daysSince(p.FetchedAt, role.StartDate); ok && days <= 730 {
						recentPromotion = true
					}
				}
			case b < prev:
				score -= 10
			}
		}
		prev, havePrev = b, true
	}
	if recentPromotion {
		score += 10
	}
	return clamp(score)
}

func isCurrent(e payload.Employment) bool {
	return e.Current || e.EndDate == nil
}

// CareerStability scores average tenure of completed roles and penalizes
// more than three role starts in the last five years.
func CareerStability(p payload.Payload) int {
	roles := datedRoles(p.Person)
	if len(roles) == 0 {
		return neutral
	}

	var totalMonths float64
	completed := 0
	for _, role := range roles {
		if role.EndDate == nil || role.EndDate.Before(*role.StartDate) {
			continue
		}
		totalMonths += months(role.EndDate.Sub(*role.StartDate))
		completed++
	}

	var avg float64
	switch {
	case completed > 0:
		avg = totalMonths / float64(completed)
	default:
		current := p.Person.CurrentRole()
		if current == nil || current.StartDate == nil || p.FetchedAt.IsZero() {
			return neutral
		}
		avg = months(p.FetchedAt.Sub(*current.StartDate))
	}

	var score int
	switch {
	case avg >= 48:
		score = 90
	case avg >= 36:
		score = 80
	case avg >= 24:
		score = 65
	case avg >= 12:
		score = 45
	default:
		score = 25
	}

	if !p.FetchedAt.IsZero() {
		cutoff := p.FetchedAt.AddDate(-5, 0, 0)
		recent := 0
		for _, role := range roles {
			if !role.StartDate.Before(cutoff) {
				recent++
			}
		}
		if recent > 3 {
			score -= 15
		}
	}
	return clamp(score)
}

func months(d time.Duration) float64 {
	return d.Hours() / 24 / 30.44
}

// reachability: verified email 100, any other email 60, none 0.
func reachability(p payload.Person) int {
	if strings.TrimSpace(p.Email) == "" {
		return 0
	}
	if strings.EqualFold(p.EmailStatus, "verified") {
		return 100
	}
	return 60
}

// BuyerLikelihood = 0.50 role power + 0.30 seniority + 0.20 reachability.
func BuyerLikelihood(p payload.Person) int {
	return weighted(
		term{0.50, RolePower(p)},
		term{0.30, Seniority(p)},
		term{0.20, reachability(p)},
	)
}

// Readiness = 0.40 urgency + 0.35 buying power + 0.25 buyer likelihood.
func Readiness(urgency, buyingPower, buyerLikelihood int) int {
	return weighted(
		term{0.40, urgency},
		term{0.35, buyingPower},
		term{0.25, buyerLikelihood},
	)
}

// daysSince returns whole days from t to ref. Dates in the future relative to
// ref, or a missing ref, are unknown.
func daysSince(ref time.Time, t *time.Time) (int, bool) {
	if t == nil || ref.IsZero() || t.After(ref) {
		return 0, false
	}
	return int(ref.Sub(*t) / day), true
}
