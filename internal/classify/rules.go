package classify

import "github.com/promptline/smsrouter/internal/models"

// trigger is one weighted term or phrase for a category. Terms containing a
// space are matched as substrings of the normalized input; single words are
// matched on word boundaries.
type trigger struct {
	term   string
	weight float64
}

// categoryTriggers maps each category to its weighted trigger list.
// Adding a category is a data change here plus a priority table row,
// not a control-flow change.
var categoryTriggers = map[models.Category][]trigger{
	models.CategoryCoding: {
		{"algorithm", 1.5},
		{"implement", 1.2},
		{"refactor", 1.2},
		{"function", 1.2},
		{"code", 1.2},
		{"script", 1.2},
		{"sql", 1.2},
		{"python", 1.2},
		{"javascript", 1.2},
		{"typescript", 1.2},
		{"react", 1.2},
		{"regex", 1.2},
		{"class", 1.0},
		{"program", 1.0},
		{"api", 1.0},
		{"database", 1.0},
		{"html", 1.0},
		{"css", 1.0},
		{"json", 1.0},
		{"xml", 1.0},
		{"loop", 1.0},
		{"array", 1.0},
	},
	models.CategoryDebug: {
		{"stack trace", 2.5},
		{"not working", 2.2},
		{"exception", 2.0},
		{"traceback", 2.0},
		{"crash", 2.0},
		{"crashes", 2.0},
		{"crashed", 2.0},
		{"segfault", 2.0},
		{"error", 1.8},
		{"errors", 1.8},
		{"bug", 1.8},
		{"bugs", 1.8},
		{"broken", 1.6},
		{"debug", 1.6},
		{"troubleshoot", 1.6},
		{"fails", 1.4},
		{"failing", 1.4},
		{"fix", 1.4},
		{"issue", 1.2},
		{"problem", 1.0},
	},
	models.CategoryDesign: {
		{"user experience", 1.5},
		{"wireframe", 1.5},
		{"mockup", 1.5},
		{"design", 1.5},
		{"responsive", 1.2},
		{"layout", 1.2},
		{"prototype", 1.2},
		{"ui", 1.2},
		{"ux", 1.2},
		{"interface", 1.0},
	},
	models.CategoryDocumentation: {
		{"documentation", 1.8},
		{"readme", 1.8},
		{"tutorial", 1.5},
		{"how to", 1.2},
		{"guide", 1.2},
		{"manual", 1.2},
		{"instructions", 1.2},
		{"document", 1.2},
		{"explain", 1.0},
	},
	models.CategoryAnalysis: {
		{"analyze", 1.5},
		{"analyse", 1.5},
		{"evaluate", 1.5},
		{"benchmark", 1.5},
		{"review", 1.2},
		{"compare", 1.2},
		{"assess", 1.2},
		{"performance", 1.2},
		{"optimization", 1.2},
		{"optimize", 1.2},
		{"metrics", 1.2},
	},
	models.CategoryGeneral: {
		{"thank you", 1.0},
		{"hello", 1.0},
		{"thanks", 1.0},
		{"hey", 1.0},
	},
}

// tieBreakOrder fixes the category preference for near-equal scores.
// Later entries win ties: mis-routing a failure report to generic handling
// is the costlier error, so Debug sits last.
var tieBreakOrder = []models.Category{
	models.CategoryGeneral,
	models.CategoryDocumentation,
	models.CategoryDesign,
	models.CategoryAnalysis,
	models.CategoryCoding,
	models.CategoryDebug,
}

// technicalVocabulary lists domain-technical tokens for the density factor:
// language and framework names, error-type nouns, architecture nouns.
var technicalVocabulary = []string{
	"python", "javascript", "typescript", "golang", "java", "rust", "ruby",
	"react", "vue", "angular", "django", "flask", "spring", "node", "nodejs",
	"sql", "postgres", "postgresql", "mysql", "sqlite", "redis", "mongodb",
	"docker", "kubernetes", "nginx", "linux", "git", "npm", "webpack",
	"api", "rest", "grpc", "http", "https", "websocket", "oauth", "jwt",
	"json", "xml", "yaml", "regex", "database", "schema", "index", "query",
	"cache", "queue", "thread", "goroutine", "mutex", "deadlock",
	"exception", "traceback", "segfault", "timeout", "panic", "stacktrace",
	"microservice", "backend", "frontend", "middleware", "framework",
	"library", "compiler", "runtime", "algorithm", "function", "class",
	"method", "struct", "pointer", "array", "hashmap", "recursion",
	"server", "deployment", "container", "migration", "endpoint",
}

// priorityRule maps a (category, minimum complexity) pair to a priority.
type priorityRule struct {
	category      models.Category
	minComplexity float64
	priority      models.Priority
}

// priorityTable is evaluated top-down, first match wins. Every category has
// a zero-threshold row, so the lookup is total.
var priorityTable = []priorityRule{
	{models.CategoryDebug, 0.8, models.PriorityUrgent},
	{models.CategoryDebug, 0.0, models.PriorityHigh},
	{models.CategoryCoding, 0.6, models.PriorityHigh},
	{models.CategoryCoding, 0.0, models.PriorityMedium},
	{models.CategoryDesign, 0.0, models.PriorityMedium},
	{models.CategoryAnalysis, 0.0, models.PriorityMedium},
	{models.CategoryDocumentation, 0.0, models.PriorityMedium},
	{models.CategoryGeneral, 0.8, models.PriorityMedium},
	{models.CategoryGeneral, 0.0, models.PriorityLow},
}
