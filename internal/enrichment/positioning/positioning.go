// Package positioning classifies a company's market position with an LLM
// and always falls back to deterministic revenue and headcount tiers.
package positioning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"outreach_backend/platform/ai/textgen"
	"outreach_backend/platform/logger"
)

// Source values on a Result.
const (
	SourceLLM      = "llm"
	SourceFallback = "fallback"
)

const (
	defaultTimeout = 20 * time.Second
	maxLabelRunes  = 60
	maxCompetitors = 3
)

// Categories the model may choose from.
var Categories = []string{"market_leader", "challenger", "niche_player", "emerging", "disruptor"}

// Industries the model may choose from. Anything else becomes "other".
var Industries = []string{
	"software", "fintech", "healthcare", "manufacturing", "retail", "professional_services",
	"media", "education", "logistics", "energy", "real_estate", "other",
}

// Input describes the company to classify.
type Input struct {
	Name          string
	Industry      string
	AnnualRevenue *int64
	Headcount     *int
}

// Result is the positioning stored on a company.
type Result struct {
	Category      string   `json:"category,omitempty"`
	Industry      string   `json:"industry,omitempty"`
	Label         string   `json:"label,omitempty"`
	Competitors   []string `json:"competitors"`
	RevenueTier   string   `json:"revenueTier"`
	HeadcountTier string   `json:"headcountTier"`
	Source        string   `json:"source"`
}

// Inferrer runs the classification. A nil generator means the LLM is not
// configured and every call returns the fallback.
type Inferrer struct {
	gen     textgen.Generator
	timeout time.Duration
	log     *logger.Logger
}

// NewInferrer creates an inferrer. gen may be nil.
func NewInferrer(gen textgen.Generator, log *logger.Logger) *Inferrer {
	if log == nil {
		log = logger.Nop()
	}
	return &Inferrer{gen: gen, timeout: defaultTimeout, log: log}
}

// WithTimeout overrides the per call deadline.
func (i *Inferrer) WithTimeout(d time.Duration) *Inferrer {
	i.timeout = d
	return i
}

// Fallback returns the tiers-only result.
func Fallback(in Input) Result {
	return Result{
		Competitors:   []string{},
		RevenueTier:   RevenueTier(in.AnnualRevenue),
		HeadcountTier: HeadcountTier(in.Headcount),
		Source:        SourceFallback,
	}
}

var errNotConfigured = errors.New("llm not configured")

// Infer never fails. Any model problem is logged at warn and the fallback is returned.
func (i *Inferrer) Infer(ctx context.Context, in Input) Result {
	fallback := Fallback(in)
	if strings.TrimSpace(in.Name) == "" {
		return fallback
	}

	start := time.Now()
	result, err := i.infer(ctx, in)
	i.log.ProviderCall("llm", "positioning", time.Since(start), err)
	if err != nil {
		i.log.WithContext(ctx).Warn("positioning inference fell back to tiers",
			"company", in.Name,
			"error", err,
		)
		return fallback
	}
	result.RevenueTier = fallback.RevenueTier
	result.HeadcountTier = fallback.HeadcountTier
	result.Source = SourceLLM
	return result
}

type modelOutput struct {
	Category    string   `json:"category"`
	Industry    string   `json:"industry"`
	Label       string   `json:"label"`
	Competitors []string `json:"competitors"`
}

func (i *Inferrer) infer(ctx context.Context, in Input) (Result, error) {
	if i.gen == nil {
		return Result{}, errNotConfigured
	}

	callCtx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	raw, err := i.gen.Generate(callCtx, "positioning", buildPrompt(in))
	if err != nil {
		return Result{}, err
	}
	jsonText, ok := textgen.ExtractJSONObject(raw)
	if !ok {
		return Result{}, fmt.Errorf("model returned no JSON object")
	}
	var out modelOutput
	if err := json.Unmarshal([]byte(jsonText), &out); err != nil {
		return Result{}, fmt.Errorf("decode model output: %w", err)
	}
	return sanitize(out, in.Name), nil
}

func sanitize(out modelOutput, companyName string) Result {
	res := Result{
		Category:    normalizeEnum(out.Category, Categories, ""),
		Industry:    normalizeEnum(out.Industry, Industries, "other"),
		Label:       truncateRunes(strings.TrimSpace(out.Label), maxLabelRunes),
		Competitors: cleanCompetitors(out.Competitors, companyName),
	}
	return res
}

func normalizeEnum(value string, allowed []string, otherwise string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	v = strings.NewReplacer(" ", "_", "-", "_").Replace(v)
	for _, a := range allowed {
		if v == a {
			return a
		}
	}
	return otherwise
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n]))
}

func cleanCompetitors(values []string, companyName string) []string {
	self := strings.ToLower(strings.TrimSpace(companyName))
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, maxCompetitors)
	for _, v := range values {
		name := strings.TrimSpace(v)
		key := strings.ToLower(name)
		if name == "" || key == self {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
		if len(out) == maxCompetitors {
			break
		}
	}
	return out
}
