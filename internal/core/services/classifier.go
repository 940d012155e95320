package services

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/custodia-labs/atlas-core/internal/core/domain"
)

// databaseMargin is how far the database score must exceed the knowledge
// score to win outright. Ties go to the ambiguous rules.
const databaseMargin = 0.1

type intentPattern struct {
	re     *regexp.Regexp
	weight float64
	reason string
}

func pattern(expr string, weight float64, reason string) intentPattern {
	return intentPattern{re: regexp.MustCompile(expr), weight: weight, reason: reason}
}

var knowledgePatterns = []intentPattern{
	pattern(`^(hi|hello|hey|greetings|thanks|thank you|cheers|ok|okay|bye|goodbye)\b`, 0.95, "greeting or acknowledgement"),
	pattern(`\bwho (built|was|were|made|discovered|excavated|lived)\b`, 0.8, "question about people"),
	pattern(`\bwhy (did|do|does|was|were|is|are)\b`, 0.8, "question about causes"),
	pattern(`\b(history|meaning|significance|purpose|origin)s? of\b`, 0.75, "question about background"),
	pattern(`\b(tell me about|explain|describe)\b`, 0.7, "explanation request"),
	pattern(`\bwhat (is|are|was|were)\b`, 0.7, "definition question"),
	pattern(`\bhow (did|do|does|was|were)\b`, 0.7, "question about methods"),
	pattern(`\bwhen (was|were|did)\b`, 0.65, "question about dates"),
	pattern(`\b(difference between|compared? to|versus|vs\.?)\b`, 0.6, "comparison question"),
}

var databasePatterns = []intentPattern{
	pattern(`\b(show|find|list|map|highlight|locate|display|plot)\b`, 0.85, "search request"),
	pattern(`\bwhere (are|is|were|can|could)\b`, 0.8, "location question"),
	pattern(`\b(oldest|largest|biggest|tallest|earliest|best preserved)\b.*\b(in|near|of)\b`, 0.8, "ranked site request"),
	pattern(`\b(how many|number of|count of)\b`, 0.75, "count question"),
	pattern(`\b(sites?|ruins|monuments?|remains)\b\s+(in|near|around|from|of)\b`, 0.75, "sites by place"),
	pattern(`\b(temples|forts|hillforts|castles|tombs|pyramids|stone circles|henges|barrows|dolmens|villas|settlements|monasteries|churches|megaliths|amphitheatres|aqueducts)\b`, 0.7, "plural site type"),
	pattern(`\b(near|around|close to|within \d+)\b`, 0.7, "proximity constraint"),
	pattern(`\b\d+\s*(bc|bce|ad|ce)\b|\b(older|newer) than\b|\bcentury\b`, 0.6, "date constraint"),
	pattern(`\b(volcano|volcanoes|craters?)\b`, 0.6, "geographic feature"),
}

var superlativePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(oldest|newest|largest|biggest|smallest|tallest|highest|longest|earliest|latest|greatest|best|worst)\b`),
	regexp.MustCompile(`\bthe \w+est\b`),
	regexp.MustCompile(`\bmost \w+\b`),
	regexp.MustCompile(`\btop (\d+|three|five|ten)\b`),
}

var knowledgeStemRe = regexp.MustCompile(`\b(what is|who|when|why|tell me about)\b`)

// QueryClassifier routes a query to the knowledge or database path.
// It is deterministic and holds no mutable state.
type QueryClassifier struct{}

// NewQueryClassifier creates a classifier
func NewQueryClassifier() *QueryClassifier {
	return &QueryClassifier{}
}

// Classify scores query against both pattern lists and applies the decision rules.
func (c *QueryClassifier) Classify(query string) domain.ClassificationResult {
	trimmed := strings.TrimSpace(query)
	lower := strings.ToLower(trimmed)
	superlative := IsSuperlative(lower)

	if len([]rune(lower)) < 3 {
		return domain.ClassificationResult{
			Intent:        domain.IntentKnowledge,
			Confidence:    0.99,
			Reason:        "query too short",
			IsSuperlative: superlative,
		}
	}

	kScore, kReason := bestMatch(knowledgePatterns, lower)
	dScore, dReason := bestMatch(databasePatterns, lower)

	result := domain.ClassificationResult{IsSuperlative: superlative}
	switch {
	case dScore > kScore+databaseMargin:
		result.Intent = domain.IntentDatabase
		result.Confidence = clamp01(dScore)
		result.Reason = dReason
	case kScore > dScore:
		result.Intent = domain.IntentKnowledge
		result.Confidence = clamp01(kScore)
		result.Reason = kReason
	default:
		noun := ProperNoun(trimmed)
		switch {
		case noun != "" && hasKnowledgeStem(lower):
			result.Intent = domain.IntentKnowledge
			result.Confidence = 0.7
			result.Reason = "question about a named place"
		case noun != "":
			result.Intent = domain.IntentDatabase
			result.Confidence = 0.6
			result.Reason = "named place without question"
			result.SearchHint = noun
		case len(strings.Fields(lower)) <= 4:
			result.Intent = domain.IntentKnowledge
			result.Confidence = 0.5
			result.Reason = "short ambiguous query"
		default:
			result.Intent = domain.IntentDatabase
			result.Confidence = 0.5
			result.Reason = "default to search"
		}
	}
	return result
}

// bestMatch returns the highest weight among matching patterns.
// Earlier patterns win ties.
func bestMatch(patterns []intentPattern, text string) (float64, string) {
	var score float64
	var reason string
	for _, p := range patterns {
		if p.weight > score && p.re.MatchString(text) {
			score = p.weight
			reason = p.reason
		}
	}
	return score, reason
}

// IsSuperlative reports comparative or extremal language in a lowercased query
func IsSuperlative(lower string) bool {
	for _, re := range superlativePatterns {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}

func hasKnowledgeStem(lower string) bool {
	return knowledgeStemRe.MatchString(lower)
}

// ProperNoun returns the first capitalised run in query: either several
// capitalised words in a row, or one capitalised word longer than three
// letters. A single word opening the sentence only counts when it is not
// a stop word or a classifier keyword.
func ProperNoun(query string) string {
	words := strings.Fields(query)
	for i := 0; i < len(words); i++ {
		if !isCapitalised(words[i]) {
			continue
		}
		j := i
		var run []string
		for j < len(words) && isCapitalised(words[j]) {
			run = append(run, strings.TrimFunc(words[j], isPunct))
			if endsClause(words[j]) {
				j++
				break
			}
			j++
		}
		if len(run) >= 2 {
			return strings.Join(run, " ")
		}
		if len([]rune(run[0])) > 3 && (i > 0 || !isSentenceOpener(run[0])) {
			return run[0]
		}
		i = j - 1
	}
	return ""
}

// isSentenceOpener reports words that are capitalised only because they
// start the query, such as "Show" or "Where"
func isSentenceOpener(word string) bool {
	lower := strings.ToLower(word)
	if stopWords[lower] || hasKnowledgeStem(lower) {
		return true
	}
	for _, list := range [][]intentPattern{knowledgePatterns, databasePatterns} {
		for _, p := range list {
			if p.re.MatchString(lower) {
				return true
			}
		}
	}
	return false
}

func isCapitalised(word string) bool {
	word = strings.TrimFunc(word, isPunct)
	if word == "" {
		return false
	}
	r := []rune(word)
	return unicode.IsUpper(r[0]) && (len(r) == 1 || !isAllUpper(r))
}

func isAllUpper(r []rune) bool {
	for _, c := range r {
		if unicode.IsLetter(c) && !unicode.IsUpper(c) {
			return false
		}
	}
	return true
}

func isPunct(r rune) bool {
	return unicode.IsPunct(r)
}

func endsClause(word string) bool {
	return strings.ContainsAny(word[len(word)-1:], ",.?!;:")
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
