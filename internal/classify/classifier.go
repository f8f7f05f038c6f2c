// Package classify implements the deterministic message classifier: category
// by weighted trigger terms, complexity by a three-factor score, priority by
// a decision table. Classification is pure and never fails.
package classify

import (
	"regexp"
	"strings"

	"github.com/promptline/smsrouter/internal/models"
)

const (
	// scoreEpsilon is the tolerance for category score ties.
	scoreEpsilon = 1e-6

	// minCategoryScore is the minimum winning trigger score; anything
	// below it falls back to General.
	minCategoryScore = 1.0

	// lengthNormTokens is the token count at which the length factor
	// saturates at 1.0.
	lengthNormTokens = 200

	// Complexity factor weights. They sum to 1 so the score stays in [0,1].
	lengthWeight     = 0.3
	densityWeight    = 0.4
	structuralWeight = 0.3

	// codeLineRunLength is how many consecutive code-like lines make a block.
	codeLineRunLength = 3

	// braceDensityRatio is the brace/parenthesis density above which a
	// line counts as code-like.
	braceDensityRatio = 0.08
)

// Result is the outcome of classifying one message.
type Result struct {
	Category        models.Category
	ComplexityScore float64
	Priority        models.Priority

	// CategoryScores carries the per-category trigger score breakdown
	// for logging and explainability.
	CategoryScores map[models.Category]float64
}

// wordTrigger is a compiled single-word trigger.
type wordTrigger struct {
	pattern *regexp.Regexp
	weight  float64
}

// phraseTrigger is a multi-word trigger matched as a substring.
type phraseTrigger struct {
	phrase string
	weight float64
}

// Classifier scores messages against the rule tables. It holds only
// immutable compiled state and is safe for concurrent use.
type Classifier struct {
	words     map[models.Category][]wordTrigger
	phrases   map[models.Category][]phraseTrigger
	technical map[string]struct{}
}

// NewClassifier compiles the rule tables into a ready classifier.
func NewClassifier() *Classifier {
	c := &Classifier{
		words:     make(map[models.Category][]wordTrigger, len(categoryTriggers)),
		phrases:   make(map[models.Category][]phraseTrigger, len(categoryTriggers)),
		technical: make(map[string]struct{}, len(technicalVocabulary)),
	}
	for category, triggers := range categoryTriggers {
		for _, trig := range triggers {
			if strings.Contains(trig.term, " ") {
				c.phrases[category] = append(c.phrases[category], phraseTrigger{
					phrase: trig.term,
					weight: trig.weight,
				})
				continue
			}
			c.words[category] = append(c.words[category], wordTrigger{
				pattern: regexp.MustCompile(`\b` + regexp.QuoteMeta(trig.term) + `\b`),
				weight:  trig.weight,
			})
		}
	}
	for _, term := range technicalVocabulary {
		c.technical[term] = struct{}{}
	}
	return c
}

// Classify maps a message to category, complexity and priority.
// Empty or whitespace-only input resolves to General/0.0/Low.
func (c *Classifier) Classify(text string) Result {
	normalized := normalize(text)
	if normalized == "" {
		return Result{
			Category:        models.CategoryGeneral,
			ComplexityScore: 0.0,
			Priority:        models.PriorityLow,
			CategoryScores:  map[models.Category]float64{},
		}
	}

	scores := c.scoreCategories(normalized)
	category := pickCategory(scores)
	complexity := c.complexityScore(text, normalized)

	return Result{
		Category:        category,
		ComplexityScore: complexity,
		Priority:        priorityFor(category, complexity),
		CategoryScores:  scores,
	}
}

// scoreCategories sums trigger weights present in the normalized input.
func (c *Classifier) scoreCategories(normalized string) map[models.Category]float64 {
	scores := make(map[models.Category]float64, len(tieBreakOrder))
	for _, category := range tieBreakOrder {
		total := 0.0
		for _, trig := range c.words[category] {
			if trig.pattern.MatchString(normalized) {
				total += trig.weight
			}
		}
		for _, trig := range c.phrases[category] {
			if strings.Contains(normalized, trig.phrase) {
				total += trig.weight
			}
		}
		scores[category] = total
	}
	return scores
}

// pickCategory selects the highest-scoring category. Scores within
// scoreEpsilon tie-break toward the later entry in tieBreakOrder, and a
// winner below minCategoryScore falls back to General.
func pickCategory(scores map[models.Category]float64) models.Category {
	best := models.CategoryGeneral
	bestScore := 0.0
	for _, category := range tieBreakOrder {
		score := scores[category]
		if score > bestScore-scoreEpsilon && score > 0 {
			best = category
			if score > bestScore {
				bestScore = score
			}
		}
	}
	if bestScore < minCategoryScore {
		return models.CategoryGeneral
	}
	return best
}

// complexityScore combines length, technical density and structural factors.
func (c *Classifier) complexityScore(original, normalized string) float64 {
	tokens := strings.Fields(normalized)
	if len(tokens) == 0 {
		return 0.0
	}

	length := float64(len(tokens)) / lengthNormTokens
	if length > 1.0 {
		length = 1.0
	}

	technical := 0
	for _, token := range tokens {
		if _, ok := c.technical[strings.Trim(token, ".,:;!?'\"()")]; ok {
			technical++
		}
	}
	density := float64(technical) / float64(len(tokens))

	structural := 0.0
	if hasCodeBlock(original) {
		structural = 1.0
	}

	score := lengthWeight*length + densityWeight*density + structuralWeight*structural
	if score < 0.0 {
		return 0.0
	}
	if score > 1.0 {
		return 1.0
	}
	return score
}

// priorityFor resolves the priority decision table. The table carries a
// zero-threshold row per category, so every pair resolves.
func priorityFor(category models.Category, complexity float64) models.Priority {
	for _, rule := range priorityTable {
		if rule.category == category && complexity >= rule.minComplexity {
			return rule.priority
		}
	}
	return models.PriorityLow
}

// normalize lowercases and collapses all whitespace runs to single spaces.
func normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// hasCodeBlock reports whether the text contains a code-like block: a fenced
// block, or a run of three or more lines that are indented or have high
// brace/parenthesis density.
func hasCodeBlock(text string) bool {
	if strings.Contains(text, "```") {
		return true
	}
	run := 0
	for _, line := range strings.Split(text, "\n") {
		if isCodeLike(line) {
			run++
			if run >= codeLineRunLength {
				return true
			}
			continue
		}
		run = 0
	}
	return false
}

// isCodeLike reports whether a single line looks like code.
func isCodeLike(line string) bool {
	if strings.TrimSpace(line) == "" {
		return false
	}
	if strings.HasPrefix(line, "\t") || strings.HasPrefix(line, "    ") {
		return true
	}
	braces := 0
	for _, r := range line {
		switch r {
		case '{', '}', '(', ')', '[', ']', ';', '=':
			braces++
		}
	}
	return float64(braces)/float64(len(line)) > braceDensityRatio
}
