package scoring

import (
	"math"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"outreach_backend/internal/enrichment/payload"
)

var ref = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func daysAgo(n int) *time.Time {
	t := ref.AddDate(0, 0, -n)
	return &t
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func intPtr(v int) *int           { return &v }
func int64Ptr(v int64) *int64     { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestClassifyTitle(t *testing.T) {
	cases := []struct {
		title string
		want  Bucket
	}{
		{"CEO", BucketExecutive},
		{"Co-Founder & CTO", BucketExecutive},
		{"Chief of Staff", BucketExecutive},
		{"Managing Director", BucketExecutive},
		{"Vice President of Sales", BucketVP},
		{"SVP, Operations", BucketVP},
		{"Senior Director", BucketDirector},
		{"Director, IT", BucketDirector},
		{"Head of Procurement", BucketDirector},
		{"Junior Manager", BucketManager},
		{"Product Lead", BucketManager},
		{"Senior Analyst", BucketSenior},
		{"Sr. Developer", BucketSenior},
		{"Software Engineer", BucketIndividual},
		{"Marketing Intern", BucketJunior},
		{"Executive Assistant", BucketJunior},
		{"", BucketUnknown},
		{"  --  ", BucketUnknown},
	}
	for _, tc := range cases {
		if got := ClassifyTitle(tc.title); got != tc.want {
			t.Errorf("ClassifyTitle(%q) = %s, want %s", tc.title, got, tc.want)
		}
	}
}

func TestSeniority_Examples(t *testing.T) {
	cases := map[string]int{
		"CEO":             95,
		"Senior Analyst":  60,
		"Senior Director": 75,
		"Data Analyst":    45,
		"Intern":          25,
	}
	for title, want := range cases {
		if got := Seniority(payload.Person{Title: title}); got != want {
			t.Errorf("Seniority(%q) = %d, want %d", title, got, want)
		}
	}
}

func TestSeniority_FallsBackToProviderField(t *testing.T) {
	cases := map[string]int{
		"c_suite":  95,
		"founder":  95,
		"vp":       85,
		"head":     75,
		"manager":  65,
		"senior":   60,
		"entry":    25,
		"intern":   25,
		"":         50,
		"whatever": 50,
	}
	for seniority, want := range cases {
		if got := Seniority(payload.Person{Seniority: seniority}); got != want {
			t.Errorf("Seniority(seniority=%q) = %d, want %d", seniority, got, want)
		}
	}

	// A title always wins over the provider field.
	if got := Seniority(payload.Person{Title: "Intern", Seniority: "c_suite"}); got != 25 {
		t.Fatalf("expected title to win, got %d", got)
	}
}

func TestPersonDepartment(t *testing.T) {
	cases := []struct {
		name   string
		person payload.Person
		want   Department
	}{
		{"highest provider department", payload.Person{Departments: []string{"master_sales", "master_finance"}}, DepartmentFinance},
		{"c suite", payload.Person{Departments: []string{"c_suite"}}, DepartmentExecutive},
		{"unknown provider value", payload.Person{Departments: []string{"master_legal"}}, DepartmentOther},
		{"title fallback finance", payload.Person{Title: "Financial Controller"}, DepartmentFinance},
		{"title fallback engineering", payload.Person{Title: "VP Engineering"}, DepartmentEngineering},
		{"title without hints", payload.Person{Title: "Office Coordinator"}, DepartmentOther},
		{"nothing", payload.Person{}, DepartmentUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := PersonDepartment(tc.person); got != tc.want {
				t.Fatalf("PersonDepartment() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestBuyingPower(t *testing.T) {
	p := payload.Payload{
		Person:       payload.Person{Title: "CFO", Departments: []string{"master_finance"}},
		Organization: &payload.Organization{EstimatedEmployees: intPtr(500)},
	}
	// 0.60*95 + 0.25*70 + 0.15*90 = 57 + 17.5 + 13.5
	if got := BuyingPower(p); got != 88 {
		t.Fatalf("BuyingPower() = %d, want 88", got)
	}

	// Unknown size and department are neutral: 0.60*45 + 0.25*50 + 0.15*50 = 47.
	if got := BuyingPower(payload.Payload{Person: payload.Person{Title: "Analyst"}}); got != 47 {
		t.Fatalf("BuyingPower() = %d, want 47", got)
	}
}

func TestUrgency(t *testing.T) {
	cases := []struct {
		name string
		p    payload.Payload
		want int
	}{
		{
			name: "no signals",
			p:    payload.Payload{FetchedAt: ref},
			want: 20,
		},
		{
			name: "all signals",
			p: payload.Payload{
				FetchedAt: ref,
				Person: payload.Person{EmploymentHistory: []payload.Employment{
					{Title: "VP Sales", StartDate: daysAgo(60), Current: true},
				}},
				Organization: &payload.Organization{
					LatestFundingAt:   daysAgo(200),
					HeadcountGrowth6m: floatPtr(0.12),
					OpenJobPostings:   intPtr(3),
				},
			},
			want: 20 + 30 + 15 + 12 + 8,
		},
		{
			name: "shrinking",
			p: payload.Payload{
				FetchedAt:    ref,
				Organization: &payload.Organization{HeadcountGrowth6m: floatPtr(-0.05)},
			},
			want: 10,
		},
		{
			name: "clamped",
			p: payload.Payload{
				FetchedAt: ref,
				Person: payload.Person{EmploymentHistory: []payload.Employment{
					{StartDate: daysAgo(10)},
				}},
				Organization: &payload.Organization{
					LatestFundingAt:   daysAgo(30),
					HeadcountGrowth6m: floatPtr(0.5),
					OpenJobPostings:   intPtr(40),
				},
			},
			want: 100,
		},
		{
			name: "no reference time ignores dates",
			p: payload.Payload{
				Person: payload.Person{EmploymentHistory: []payload.Employment{
					{StartDate: daysAgo(10), Current: true},
				}},
			},
			want: 20,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Urgency(tc.p); got != tc.want {
				t.Fatalf("Urgency() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestRolePower_DecisionKeyword(t *testing.T) {
	// 0.70*60 + 0.30*50 + 10
	if got := RolePower(payload.Person{Title: "Senior Buyer"}); got != 67 {
		t.Fatalf("RolePower() = %d, want 67", got)
	}
	// 0.70*60 + 0.30*50
	if got := RolePower(payload.Person{Title: "Senior Clerk"}); got != 57 {
		t.Fatalf("RolePower() = %d, want 57", got)
	}
}

func TestCareerMomentum(t *testing.T) {
	cases := []struct {
		name    string
		history []payload.Employment
		want    int
	}{
		{name: "no history", want: 50},
		{
			name: "recent promotion",
			history: []payload.Employment{
				{Title: "Director of Sales", StartDate: date(2025, 1, 1), Current: true},
				{Title: "Sales Manager", StartDate: date(2018, 1, 1), EndDate: date(2024, 12, 31)},
			},
			want: 50 + 15 + 10,
		},
		{
			name: "up then down",
			history: []payload.Employment{
				{Title: "Engineer", StartDate: date(2014, 1, 1), EndDate: date(2017, 1, 1)},
				{Title: "Senior Engineer", StartDate: date(2017, 1, 1), EndDate: date(2021, 1, 1)},
				{Title: "Software Engineer", StartDate: date(2021, 1, 1), Current: true},
			},
			want: 50 + 15 - 10,
		},
		{
			name: "old promotion gets no bonus",
			history: []payload.Employment{
				{Title: "Manager", StartDate: date(2012, 1, 1), EndDate: date(2016, 1, 1)},
				{Title: "Director", StartDate: date(2016, 1, 1), Current: true},
			},
			want: 65,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := payload.Payload{FetchedAt: ref, Person: payload.Person{EmploymentHistory: tc.history}}
			if got := CareerMomentum(p); got != tc.want {
				t.Fatalf("CareerMomentum() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestCareerStability(t *testing.T) {
	long := payload.Payload{FetchedAt: ref, Person: payload.Person{EmploymentHistory: []payload.Employment{
		{StartDate: date(2010, 1, 1), EndDate: date(2015, 1, 1)},
		{StartDate: date(2015, 1, 1), EndDate: date(2020, 1, 1)},
		{StartDate: date(2020, 1, 1), Current: true},
	}}}
	if got := CareerStability(long); got != 90 {
		t.Fatalf("long tenure = %d, want 90", got)
	}

	hopper := payload.Payload{FetchedAt: ref, Person: payload.Person{EmploymentHistory: []payload.Employment{
		{StartDate: date(2022, 1, 1), EndDate: date(2022, 11, 1)},
		{StartDate: date(2022, 11, 1), EndDate: date(2023, 9, 1)},
		{StartDate: date(2023, 9, 1), EndDate: date(2024, 7, 1)},
		{StartDate: date(2024, 7, 1), Current: true},
	}}}
	if got := CareerStability(hopper); got != 10 {
		t.Fatalf("job hopper = %d, want 10", got)
	}

	onlyCurrent := payload.Payload{FetchedAt: ref, Person: payload.Person{EmploymentHistory: []payload.Employment{
		{StartDate: date(2023, 1, 1), Current: true},
	}}}
	if got := CareerStability(onlyCurrent); got != 80 {
		t.Fatalf("only current role = %d, want 80", got)
	}

	if got := CareerStability(payload.Payload{FetchedAt: ref}); got != 50 {
		t.Fatalf("no history = %d, want 50", got)
	}
}

func TestBuyerLikelihood_Reachability(t *testing.T) {
	base := payload.Person{Title: "Senior Coordinator", Departments: []string{"operations"}}
	verified := base
	verified.Email, verified.EmailStatus = "a@b.com", "verified"
	guessed := base
	guessed.Email = "a@b.com"

	// role power 0.70*60 + 0.30*80 = 66, then 0.50*66 + 0.30*60 + 0.20*reach
	cases := []struct {
		p    payload.Person
		want int
	}{
		{verified, 71},
		{guessed, 63},
		{base, 51},
	}
	for _, tc := range cases {
		if got := BuyerLikelihood(tc.p); got != tc.want {
			t.Errorf("BuyerLikelihood(%+v) = %d, want %d", tc.p, got, tc.want)
		}
	}
}

func TestReadiness_WeightedSum(t *testing.T) {
	cases := []struct {
		u, b, l, want int
	}{
		{70, 80, 60, 71},
		{33, 47, 81, 50},
		{0, 0, 0, 0},
		{100, 100, 100, 100},
	}
	for _, tc := range cases {
		if got := Readiness(tc.u, tc.b, tc.l); got != tc.want {
			t.Errorf("Readiness(%d,%d,%d) = %d, want %d", tc.u, tc.b, tc.l, got, tc.want)
		}
	}
}

func TestCompanyScores(t *testing.T) {
	org := payload.Organization{
		EstimatedEmployees: intPtr(100),
		AnnualRevenue:      int64Ptr(50_000_000),
		HeadcountGrowth6m:  floatPtr(0.05),
		HeadcountGrowth12m: floatPtr(0.20),
		HeadcountGrowth24m: floatPtr(0.30),
		LatestFundingAt:    daysAgo(100),
		FoundedYear:        intPtr(2000),
		PublicTicker:       "ACME",
	}

	health := Health(org)
	growth := Growth(org, ref)
	stability := Stability(org, ref)
	market := MarketPosition(org)

	if health != 90 {
		t.Errorf("Health = %d, want 90", health)
	}
	// 50 + 200*(0.10 + 0.015 + 0.06) + 10
	if growth != 95 {
		t.Errorf("Growth = %d, want 95", growth)
	}
	if stability != 95 {
		t.Errorf("Stability = %d, want 95", stability)
	}
	if market != 65 {
		t.Errorf("MarketPosition = %d, want 65", market)
	}
	// 0.35*95 + 0.25*90 + 0.20*95 + 0.20*65 = 33.25 + 22.5 + 19 + 13
	if got := CompanyReadiness(growth, health, stability, market); got != 88 {
		t.Errorf("CompanyReadiness = %d, want 88", got)
	}
}

func TestCompanyScores_UnknownIsNeutral(t *testing.T) {
	var org payload.Organization
	if Health(org) != 50 || Growth(org, ref) != 50 || Stability(org, ref) != 50 || MarketPosition(org) != 50 {
		t.Fatalf("expected neutral scores for empty organization")
	}
}

func TestGrowth_ExtremeValuesClampHigh(t *testing.T) {
	for _, g := range []float64{0.5, 10, 1e17, 1e300, math.Inf(1)} {
		org := payload.Organization{HeadcountGrowth12m: floatPtr(g)}
		if got := Growth(org, ref); got != 100 {
			t.Errorf("Growth(%g) = %d, want 100", g, got)
		}
	}
	for _, g := range []float64{-10, -1e300, math.Inf(-1)} {
		org := payload.Organization{HeadcountGrowth12m: floatPtr(g)}
		if got := Growth(org, ref); got != 0 {
			t.Errorf("Growth(%g) = %d, want 0", g, got)
		}
	}
	if got := Growth(payload.Organization{HeadcountGrowth12m: floatPtr(math.NaN())}, ref); got != 50 {
		t.Errorf("Growth(NaN) = %d, want 50", got)
	}
}

func TestMarketPosition_HeadcountFallback(t *testing.T) {
	org := payload.Organization{EstimatedEmployees: intPtr(12000)}
	if got := MarketPosition(org); got != 90 {
		t.Fatalf("MarketPosition = %d, want 90", got)
	}
}

func TestClassifyPersona(t *testing.T) {
	cases := []struct {
		seniority int
		dept      Department
		want      Persona
	}{
		{95, DepartmentOther, PersonaEconomicBuyer},
		{85, DepartmentSales, PersonaEconomicBuyer},
		{75, DepartmentFinance, PersonaEconomicBuyer},
		{75, DepartmentSales, PersonaChampion},
		{65, DepartmentEngineering, PersonaTechnicalBuyer},
		{60, DepartmentEngineering, PersonaInfluencer},
		{45, DepartmentExecutive, PersonaEndUser},
	}
	for _, tc := range cases {
		if got := ClassifyPersona(tc.seniority, tc.dept); got != tc.want {
			t.Errorf("ClassifyPersona(%d, %q) = %s, want %s", tc.seniority, tc.dept, got, tc.want)
		}
	}
}

func TestOpportunity(t *testing.T) {
	if got := Opportunity(PersonaEconomicBuyer, 80, 50); got != 68 {
		t.Fatalf("economic buyer = %d, want 68", got)
	}
	if got := Opportunity(PersonaEndUser, 80, 50); got != 59 {
		t.Fatalf("end user = %d, want 59", got)
	}
	if got := Opportunity(Persona("nobody"), 80, 50); got != 59 {
		t.Fatalf("unknown persona should weigh like end user, got %d", got)
	}
}

func TestScore_DeterministicAndBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	titles := []string{"", "CEO", "Senior Director", "Intern", "Head of Finance", "Engineer", "VP Sales", "Owner"}

	for i := 0; i < 500; i++ {
		p := randomPayload(rng, titles)
		first := Score(p)
		second := Score(p)
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("scoring is not deterministic for %+v", p)
		}
		assertBounded(t, first)
	}
}

func TestScore_WithoutOrganization(t *testing.T) {
	p := payload.Payload{FetchedAt: ref, Person: payload.Person{Title: "CEO", Email: "ceo@acme.io", EmailStatus: "verified"}}
	res := Score(p)
	if res.Company != nil {
		t.Fatalf("expected no company scores")
	}
	if res.Version != Version {
		t.Fatalf("unexpected version %q", res.Version)
	}
	if res.Contact.Persona != PersonaEconomicBuyer || res.Contact.SeniorityLabel != "executive" {
		t.Fatalf("unexpected contact scores %+v", res.Contact)
	}
	want := Opportunity(PersonaEconomicBuyer, res.Contact.Readiness, 50)
	if res.Contact.Opportunity != want {
		t.Fatalf("Opportunity = %d, want %d", res.Contact.Opportunity, want)
	}
}

func assertBounded(t *testing.T, r Result) {
	t.Helper()
	c := r.Contact
	values := []int{c.Seniority, c.BuyingPower, c.Urgency, c.RolePower, c.CareerMomentum,
		c.CareerStability, c.BuyerLikelihood, c.Readiness, c.Opportunity}
	if r.Company != nil {
		values = append(values, r.Company.Health, r.Company.Growth, r.Company.Stability,
			r.Company.MarketPosition, r.Company.Readiness)
	}
	for _, v := range values {
		if v < 0 || v > 100 {
			t.Fatalf("score out of range: %+v", r)
		}
	}
}

func randomPayload(rng *rand.Rand, titles []string) payload.Payload {
	p := payload.Payload{
		FetchedAt: ref,
		Person: payload.Person{
			Title: titles[rng.Intn(len(titles))],
			Email: "x@example.com",
		},
	}
	for j := rng.Intn(6); j > 0; j-- {
		start := daysAgo(rng.Intn(6000))
		e := payload.Employment{Title: titles[rng.Intn(len(titles))], StartDate: start}
		if rng.Intn(2) == 0 {
			end := start.AddDate(0, rng.Intn(60), 0)
			e.EndDate = &end
		}
		p.Person.EmploymentHistory = append(p.Person.EmploymentHistory, e)
	}
	if rng.Intn(4) > 0 {
		p.Organization = &payload.Organization{
			EstimatedEmployees: intPtr(rng.Intn(50000) - 10),
			AnnualRevenue:      int64Ptr(rng.Int63n(5_000_000_000)),
			HeadcountGrowth6m:  floatPtr(rng.Float64()*4 - 2),
			HeadcountGrowth12m: floatPtr(rng.Float64()*4 - 2),
			HeadcountGrowth24m: floatPtr(rng.Float64()*4 - 2),
			LatestFundingAt:    daysAgo(rng.Intn(1000) - 100),
			FoundedYear:        intPtr(1900 + rng.Intn(140)),
			OpenJobPostings:    intPtr(rng.Intn(30)),
		}
	}
	return p
}
