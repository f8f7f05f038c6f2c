// Package tier holds the static subscription tier policy table.
//
// The table is process-wide, immutable after init, and shared read-only
// across all requests, so no locking is needed.
package tier

import (
	"time"

	"github.com/promptline/smsrouter/internal/models"
)

// Model identifiers exposed to the generative backend.
const (
	// BaselineModel is available to every tier.
	BaselineModel = "gpt-3.5-turbo"
	// AdvancedModel is available to Premium and Enterprise tiers.
	AdvancedModel = "gpt-4"
)

// Policy describes the admission and budget rules for one subscription tier.
type Policy struct {
	Quota         int             // Admitted requests per window; 0 means unbounded.
	Window        time.Duration   // Quota window length.
	TokenBudget   int             // Max tokens per backend call before category caps.
	Models        []string        // Eligible model identifiers, baseline first.
	PriorityFloor models.Priority // Minimum priority for tasks from this tier.
}

// policies is the fixed tier policy table.
var policies = map[models.Tier]Policy{
	models.TierFree: {
		Quota:         10,
		Window:        time.Hour,
		TokenBudget:   1000,
		Models:        []string{BaselineModel},
		PriorityFloor: models.PriorityLow,
	},
	models.TierPremium: {
		Quota:         50,
		Window:        time.Hour,
		TokenBudget:   4000,
		Models:        []string{BaselineModel, AdvancedModel},
		PriorityFloor: models.PriorityMedium,
	},
	models.TierEnterprise: {
		Quota:         0, // Unbounded sentinel: never denied, still counted.
		Window:        time.Hour,
		TokenBudget:   8000,
		Models:        []string{BaselineModel, AdvancedModel},
		PriorityFloor: models.PriorityHigh,
	},
}

// categoryTokenCaps limits the backend budget per category. Some categories
// (Debug in particular) request a terse budget even under generous tiers.
var categoryTokenCaps = map[models.Category]int{
	models.CategoryCoding:        2000,
	models.CategoryDebug:         1500,
	models.CategoryDesign:        1200,
	models.CategoryDocumentation: 1200,
	models.CategoryAnalysis:      1600,
	models.CategoryGeneral:       1000,
}

// PolicyFor returns the policy for a tier, falling back to the free tier.
func PolicyFor(t models.Tier) Policy {
	if p, ok := policies[t]; ok {
		return p
	}
	return policies[models.TierFree]
}

// TokenBudgetFor returns the effective budget for a tier and category:
// min(tier budget, category cap).
func TokenBudgetFor(t models.Tier, category models.Category) int {
	p := PolicyFor(t)
	cap, ok := categoryTokenCaps[category]
	if !ok {
		cap = categoryTokenCaps[models.CategoryGeneral]
	}
	if cap < p.TokenBudget {
		return cap
	}
	return p.TokenBudget
}

// ModelFor selects the model for a tier and classification. Debug, Design
// and complex Coding tasks prefer the advanced model when the tier allows it.
func ModelFor(t models.Tier, category models.Category, complexity float64) string {
	p := PolicyFor(t)
	preferAdvanced := false
	switch category {
	case models.CategoryDebug, models.CategoryDesign:
		preferAdvanced = true
	case models.CategoryCoding:
		preferAdvanced = complexity >= 0.6
	}
	if preferAdvanced {
		for _, m := range p.Models {
			if m == AdvancedModel {
				return m
			}
		}
	}
	if len(p.Models) == 0 {
		return BaselineModel
	}
	return p.Models[0]
}
