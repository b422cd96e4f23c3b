package external

import (
	"html"
	"math/rand/v2"
	"strings"

	"github.com/gokatarajesh/trivia-rooms/internal/question"
)

// toQuestion places the correct answer at a random position among exactly four choices.
// Questions with fewer than three incorrect answers are skipped by the caller via ok=false.
func toQuestion(prompt, correct string, incorrect []string, source string, intn func(int) int) (question.Question, bool) {
	if len(incorrect) < question.ChoiceCount-1 {
		return question.Question{}, false
	}
	if intn == nil {
		intn = rand.IntN
	}
	choices := make([]string, 0, question.ChoiceCount)
	for _, c := range incorrect[:question.ChoiceCount-1] {
		choices = append(choices, clean(c))
	}
	pos := intn(question.ChoiceCount)
	choices = append(choices, "")
	copy(choices[pos+1:], choices[pos:])
	choices[pos] = clean(correct)

	return question.Question{
		Prompt:       clean(prompt),
		Choices:      choices,
		CorrectIndex: pos,
		Source:       source,
	}, true
}

func clean(s string) string {
	return strings.TrimSpace(html.UnescapeString(s))
}
