package selection

import (
	"fmt"
	"strings"

	"adaptivequiz/internal/completion"
	"adaptivequiz/internal/model"
)

const systemPrompt = `You choose the next questions of a personality questionnaire.
Pick the candidates that best clarify the respondent's profile given their answers so far.
Return ONLY a JSON array of the 1-based candidate numbers, at most %d of them, for example [2, 7, 12].
Do not add any other text.`

// buildMessages renders the completion request for one selection
func buildMessages(answers []model.AnsweredQuestion, history []model.HistoricalSession, remaining []model.Question, maxQuestions, historyLimit int) []completion.Message {
	var sb strings.Builder

	sb.WriteString("Answers so far:\n")
	if len(answers) == 0 {
		sb.WriteString("(none)\n")
	}
	for _, a := range answers {
		fmt.Fprintf(&sb, "- Q: %s [%s]\n  A: %s (%d)\n", a.QuestionText, a.Trait, a.AnswerText, a.SelectedValue)
	}

	if len(history) > historyLimit {
		history = history[:historyLimit]
	}
	if len(history) > 0 {
		sb.WriteString("\nPrevious sessions, most recent first:\n")
		for i, h := range history {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, traitSummary(h.TraitScores))
		}
	}

	sb.WriteString("\nCandidate questions:\n")
	for i, q := range remaining {
		fmt.Fprintf(&sb, "%d. [%s] %s\n", i+1, q.Trait, q.Text)
	}

	return []completion.Message{
		{Role: completion.RoleSystem, Content: fmt.Sprintf(systemPrompt, maxQuestions)},
		{Role: completion.RoleUser, Content: sb.String()},
	}
}

func traitSummary(scores map[model.Trait]float64) string {
	parts := make([]string, 0, len(model.AllTraits))
	for _, t := range model.AllTraits {
		if s, ok := scores[t]; ok {
			parts = append(parts, fmt.Sprintf("%s=%.2f", t, s))
		}
	}
	if len(parts) == 0 {
		return "(no scores)"
	}
	return strings.Join(parts, ", ")
}
