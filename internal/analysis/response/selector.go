package response

import (
	"strings"

	"github.com/oncolens/assistant/internal/model/role"
)

// Rule binds a set of lower-case keywords to a canned reply. A rule matches
// when any of its keywords is a substring of the normalized input.
type Rule struct {
	Keywords []string
	Reply    string
}

// Table is an ordered rule list plus the reply used when nothing matches.
// The first matching rule wins.
type Table struct {
	Rules    []Rule
	Fallback string
}

const (
	PatientSurvival = "Your survival probability of 87% over 5 years is very encouraging. This is based on similar cases with your cancer type, stage, and demographic factors. Remember, these are statistical averages - your individual outcome may be better with proper treatment adherence."

	PatientSideEffects = "Side effects vary by treatment type. Your recommended treatments show moderate side effect profiles. We can discuss specific management strategies for each potential side effect to minimize their impact on your quality of life."

	PatientTreatment = "Your top recommended treatment has a 92% effectiveness rate for cases similar to yours. This combines targeted therapy with your specific genetic markers, which research shows improves outcomes significantly."

	PatientFallback = "I understand you have questions about your care. Could you be more specific about what aspect you'd like to discuss? I can help explain your treatment options, side effects, or survival statistics in detail."

	ProfessionalOutcomes = "Recent data shows immunotherapy combined with targeted therapy achieving 78% response rates in Stage II cases. This represents a 15% improvement over traditional protocols in the past 12 months."

	ProfessionalTrends = "Current 5-year survival trends show consistent improvement across most cancer types. Early detection programs have contributed to a 23% improvement in outcomes, particularly in rural screening initiatives."

	ProfessionalPatterns = "Pattern analysis reveals that patients with AI-assisted treatment selection show 34% fewer severe side effects and 12% better treatment adherence rates compared to standard protocols."

	ProfessionalFallback = "I can provide clinical insights, treatment outcome analysis, or help interpret patient data patterns. What specific area would you like to explore?"
)

var tables = map[role.Role]Table{
	role.Patient: {
		Rules: []Rule{
			{Keywords: []string{"survival", "statistics"}, Reply: PatientSurvival},
			{Keywords: []string{"side effect"}, Reply: PatientSideEffects},
			{Keywords: []string{"treatment", "effective"}, Reply: PatientTreatment},
		},
		Fallback: PatientFallback,
	},
	role.Professional: {
		Rules: []Rule{
			{Keywords: []string{"outcome", "treatment"}, Reply: ProfessionalOutcomes},
			{Keywords: []string{"trend", "survival"}, Reply: ProfessionalTrends},
			{Keywords: []string{"data", "pattern"}, Reply: ProfessionalPatterns},
		},
		Fallback: ProfessionalFallback,
	},
}

// TableFor returns the rule table bound to r. Roles outside the enum get the
// patient table.
func TableFor(r role.Role) Table {
	if t, ok := tables[r]; ok {
		return t
	}
	return tables[role.Patient]
}

// Select picks the canned reply for text under role r.
func Select(text string, r role.Role) string {
	return TableFor(r).Match(text)
}

// Match returns the reply of the first rule matching text, or the fallback.
func (t Table) Match(text string) string {
	normalized := strings.ToLower(text)
	for _, rule := range t.Rules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(normalized, keyword) {
				return rule.Reply
			}
		}
	}
	return t.Fallback
}
