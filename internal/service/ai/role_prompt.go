package ai

import (
	"strings"

	"github.com/oncolens/assistant/internal/analysis/response"
	"github.com/oncolens/assistant/internal/model/role"
)

var audienceHints = map[role.Role]string{
	role.Patient: "You are speaking with a patient reviewing their personal oncology dashboard. " +
		"Use plain language, stay encouraging and never give a diagnosis or change their care plan.",
	role.Professional: "You are speaking with an oncologist reviewing aggregate clinical analytics. " +
		"Be concise and quantitative, and refer to cohorts rather than individual patients.",
}

// BuildSystemPrompt grounds the model on the same figures the dashboard shows
// so free-form answers stay consistent with the canned replies.
func BuildSystemPrompt(r role.Role) string {
	hint, ok := audienceHints[r]
	if !ok {
		hint = audienceHints[role.Patient]
	}

	table := response.TableFor(r)

	var b strings.Builder
	b.WriteString("You are the Smart Assistant embedded in an oncology insights dashboard.\n")
	b.WriteString(hint)
	b.WriteString("\n\nDashboard facts you may rely on:\n")
	for _, rule := range table.Rules {
		b.WriteString("- ")
		b.WriteString(rule.Reply)
		b.WriteString("\n")
	}
	b.WriteString("\nIf the question is outside these topics, answer in the spirit of: ")
	b.WriteString(table.Fallback)
	b.WriteString("\nNever invent figures that are not listed above. Reply in at most three sentences.")
	return b.String()
}
