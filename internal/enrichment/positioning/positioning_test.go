package positioning

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type fakeGenerator struct {
	out   string
	err   error
	delay time.Duration
	calls int
}

func (f *fakeGenerator) Generate(ctx context.Context, userID, prompt string) (string, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.out, f.err
}

func i64(v int64) *int64 { return &v }
func ip(v int) *int      { return &v }

func TestTiers(t *testing.T) {
	revenue := []struct {
		in   *int64
		want string
	}{
		{nil, TierUnknown},
		{i64(0), TierUnknown},
		{i64(500_000), TierMicro},
		{i64(1_000_000), TierSMB},
		{i64(10_000_000), TierMidMarket},
		{i64(100_000_000), TierUpperMidMarket},
		{i64(1_000_000_000), TierEnterprise},
	}
	for _, tc := range revenue {
		if got := RevenueTier(tc.in); got != tc.want {
			t.Errorf("RevenueTier(%v) = %s, want %s", tc.in, got, tc.want)
		}
	}

	headcount := []struct {
		in   *int
		want string
	}{
		{nil, TierUnknown},
		{ip(0), TierUnknown},
		{ip(1), TierMicro},
		{ip(50), TierSMB},
		{ip(200), TierMidMarket},
		{ip(1000), TierLarge},
		{ip(5000), TierEnterprise},
	}
	for _, tc := range headcount {
		if got := HeadcountTier(tc.in); got != tc.want {
			t.Errorf("HeadcountTier(%v) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestInfer_LLMResultIsSanitized(t *testing.T) {
	gen := &fakeGenerator{out: "```json\n" + `{
		"category": "Market Leader",
		"industry": "aerospace",
		"label": "` + strings.Repeat("x", 80) + `",
		"competitors": [" Globex ", "globex", "Acme", "Initech", "", "Umbrella", "Hooli"]
	}` + "\n```"}
	inf := NewInferrer(gen, nil)

	res := inf.Infer(context.Background(), Input{Name: "Acme", AnnualRevenue: i64(250_000_000), Headcount: ip(1200)})

	if res.Source != SourceLLM {
		t.Fatalf("expected llm source, got %s", res.Source)
	}
	if res.Category != "market_leader" {
		t.Fatalf("unexpected category %q", res.Category)
	}
	if res.Industry != "other" {
		t.Fatalf("out of enum industry should map to other, got %q", res.Industry)
	}
	if len([]rune(res.Label)) != 60 {
		t.Fatalf("label not truncated: %d runes", len([]rune(res.Label)))
	}
	want := []string{"Globex", "Initech", "Umbrella"}
	if strings.Join(res.Competitors, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected competitors %v", res.Competitors)
	}
	if res.RevenueTier != TierUpperMidMarket || res.HeadcountTier != TierLarge {
		t.Fatalf("tiers not computed: %+v", res)
	}
}

func TestInfer_InvalidCategoryDropped(t *testing.T) {
	gen := &fakeGenerator{out: `{"category":"unicorn","industry":"Real Estate","label":"Property platform","competitors":[]}`}
	res := NewInferrer(gen, nil).Infer(context.Background(), Input{Name: "Zillow"})
	if res.Category != "" || res.Industry != "real_estate" || res.Source != SourceLLM {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestInfer_FallsBack(t *testing.T) {
	in := Input{Name: "Acme", AnnualRevenue: i64(5_000_000), Headcount: ip(60)}
	cases := []struct {
		name string
		gen  *fakeGenerator
	}{
		{name: "model error", gen: &fakeGenerator{err: errors.New("boom")}},
		{name: "malformed json", gen: &fakeGenerator{out: `{"category": "challenger",`}},
		{name: "prose", gen: &fakeGenerator{out: "I cannot help with that."}},
		{name: "empty", gen: &fakeGenerator{out: ""}},
		{name: "timeout", gen: &fakeGenerator{out: `{}`, delay: time.Second}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := NewInferrer(tc.gen, nil).WithTimeout(20 * time.Millisecond).Infer(context.Background(), in)
			if res.Source != SourceFallback {
				t.Fatalf("expected fallback, got %+v", res)
			}
			if res.Category != "" || res.Label != "" || len(res.Competitors) != 0 {
				t.Fatalf("fallback must only carry tiers: %+v", res)
			}
			if res.RevenueTier != TierSMB || res.HeadcountTier != TierSMB {
				t.Fatalf("unexpected tiers %+v", res)
			}
		})
	}
}

func TestInfer_NotConfigured(t *testing.T) {
	res := NewInferrer(nil, nil).Infer(context.Background(), Input{Name: "Acme"})
	if res.Source != SourceFallback || res.RevenueTier != TierUnknown {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestInfer_EmptyNameSkipsModel(t *testing.T) {
	gen := &fakeGenerator{out: `{"category":"challenger"}`}
	res := NewInferrer(gen, nil).Infer(context.Background(), Input{})
	if gen.calls != 0 || res.Source != SourceFallback {
		t.Fatalf("model should not be called without a name")
	}
}
