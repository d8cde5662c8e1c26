package scoring

import (
	"strings"
	"unicode"

	"outreach_backend/internal/enrichment/payload"
)

// Bucket is a seniority level derived from a job title. Higher is more senior.
type Bucket int

const (
	BucketUnknown Bucket = iota
	BucketJunior
	BucketIndividual
	BucketSenior
	BucketManager
	BucketDirector
	BucketVP
	BucketExecutive
)

var bucketNames = map[Bucket]string{
	BucketUnknown:    "unknown",
	BucketJunior:     "junior",
	BucketIndividual: "individual_contributor",
	BucketSenior:     "senior",
	BucketManager:    "manager",
	BucketDirector:   "director",
	BucketVP:         "vp",
	BucketExecutive:  "executive",
}

func (b Bucket) String() string { return bucketNames[b] }

// Score is the seniority score of the bucket.
func (b Bucket) Score() int {
	switch b {
	case BucketExecutive:
		return 95
	case BucketVP:
		return 85
	case BucketDirector:
		return 75
	case BucketManager:
		return 65
	case BucketSenior:
		return 60
	case BucketIndividual:
		return 45
	case BucketJunior:
		return 25
	default:
		return neutral
	}
}

type keywordBucket struct {
	bucket   Bucket
	keywords [][]string
}

// titleBuckets is checked top to bottom and the first bucket with a matching
// keyword wins, so "Senior Director" is a director and "Junior Manager" a manager.
var titleBuckets = []keywordBucket{
	{BucketExecutive, tokenizeAll("chief", "ceo", "cfo", "coo", "cto", "cio", "cmo", "cro", "cpo", "ciso",
		"president", "founder", "cofounder", "co-founder", "owner", "partner", "principal owner",
		"managing director", "general manager")},
	{BucketVP, tokenizeAll("vp", "svp", "evp", "avp", "vice president")},
	{BucketDirector, tokenizeAll("director", "head of", "head")},
	{BucketManager, tokenizeAll("manager", "lead", "supervisor", "team lead")},
	{BucketSenior, tokenizeAll("senior", "sr", "principal", "staff")},
	{BucketJunior, tokenizeAll("junior", "jr", "intern", "trainee", "assistant", "entry", "apprentice", "graduate")},
}

// "vice president" must not fall through to "president".
var vpGuard = tokenize("vice president")

// ClassifyTitle maps a free-text job title to a bucket. Empty titles are unknown,
// any other title without a keyword is an individual contributor.
func ClassifyTitle(title string) Bucket {
	tokens := tokenize(title)
	if len(tokens) == 0 {
		return BucketUnknown
	}
	for _, kb := range titleBuckets {
		for _, kw := range kb.keywords {
			if kb.bucket == BucketExecutive && kw[0] == "president" && containsSeq(tokens, vpGuard) {
				continue
			}
			if containsSeq(tokens, kw) {
				return kb.bucket
			}
		}
	}
	return BucketIndividual
}

// classifyApolloSeniority maps the provider's seniority enum.
func classifyApolloSeniority(value string) Bucket {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "c_suite", "founder", "owner", "partner":
		return BucketExecutive
	case "vp":
		return BucketVP
	case "head", "director":
		return BucketDirector
	case "manager":
		return BucketManager
	case "senior":
		return BucketSenior
	case "entry", "intern":
		return BucketJunior
	default:
		return BucketUnknown
	}
}

// PersonBucket classifies by title, falling back to the provider seniority
// field when the title is empty.
func PersonBucket(p payload.Person) Bucket {
	if b := ClassifyTitle(p.Title); b != BucketUnknown {
		return b
	}
	return classifyApolloSeniority(p.Seniority)
}

// Seniority returns the seniority score in [0,100].
func Seniority(p payload.Person) int {
	return PersonBucket(p).Score()
}

// tokenize lower-cases s and splits it on anything that is not a letter or digit.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func tokenizeAll(keywords ...string) [][]string {
	out := make([][]string, 0, len(keywords))
	for _, kw := range keywords {
		out = append(out, tokenize(kw))
	}
	return out
}

// containsSeq reports whether needle occurs in haystack as contiguous tokens.
func containsSeq(haystack, needle []string) bool {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return false
	}
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j, tok := range needle {
			if haystack[i+j] != tok {
				continue outer
			}
		}
		return true
	}
	return false
}

func hasAnyKeyword(tokens []string, keywords [][]string) bool {
	for _, kw := range keywords {
		if containsSeq(tokens, kw) {
			return true
		}
	}
	return false
}
