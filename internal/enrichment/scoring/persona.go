package scoring

// Persona is the buyer archetype used to weight opportunity and tailor outreach.
type Persona string

const (
	PersonaEconomicBuyer  Persona = "economic_buyer"
	PersonaTechnicalBuyer Persona = "technical_buyer"
	PersonaChampion       Persona = "champion"
	PersonaInfluencer     Persona = "influencer"
	PersonaEndUser        Persona = "end_user"
)

// ClassifyPersona derives the persona from seniority and department.
func ClassifyPersona(seniority int, dept Department) Persona {
	switch {
	case seniority >= 85:
		return PersonaEconomicBuyer
	case (dept == DepartmentFinance || dept == DepartmentExecutive) && seniority >= 75:
		return PersonaEconomicBuyer
	case dept == DepartmentEngineering && seniority >= 65:
		return PersonaTechnicalBuyer
	case seniority >= 65:
		return PersonaChampion
	case seniority >= 60:
		return PersonaInfluencer
	default:
		return PersonaEndUser
	}
}

// Valid reports whether p is a known persona.
func (p Persona) Valid() bool {
	_, ok := opportunityWeights[p]
	return ok
}

// opportunityWeights holds the contact readiness share; the company gets the rest.
var opportunityWeights = map[Persona]float64{
	PersonaEconomicBuyer:  0.60,
	PersonaTechnicalBuyer: 0.55,
	PersonaChampion:       0.50,
	PersonaInfluencer:     0.40,
	PersonaEndUser:        0.30,
}

// Opportunity blends contact and company readiness by persona.
func Opportunity(persona Persona, contactReadiness, companyReadiness int) int {
	w, ok := opportunityWeights[persona]
	if !ok {
		w = opportunityWeights[PersonaEndUser]
	}
	return weighted(
		term{w, contactReadiness},
		term{1 - w, companyReadiness},
	)
}
