// Package quiz turns generated quiz text into questions and scores answers.
package quiz

import (
	"strings"
)

// OptionMarkers are the prefixes that identify an answer option line.
var OptionMarkers = []string{"A)", "B)", "C)", "D)"}

// Question is a single multiple-choice question.
type Question struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
	// Answer is the upper-cased letter of the correct option.
	Answer string `json:"answer"`
}

func (q *Question) complete() bool {
	return q.Text != "" && len(q.Options) > 0 && q.Answer != ""
}

// Result is the output of Parse.
type Result struct {
	Questions []Question
	// Answers holds the answer letter of every opened question, in order,
	// including those of questions that were dropped as incomplete. Answer
	// lines outside an open question are ignored.
	Answers []string
}

// Parse scans text line by line and collects the questions it can read.
//
// A line starting with "question" (any case) opens a new question, option
// lines starting with one of OptionMarkers are attached to the open question
// and a line starting with "answer:" records its correct letter and closes the
// question. Questions
// missing their text, options or answer are dropped.
func Parse(text string) Result {
	var (
		res     Result
		current *Question
		started bool
	)

	flush := func() {
		if current != nil && current.complete() {
			res.Questions = append(res.Questions, *current)
		}
		current = nil
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		lower := strings.ToLower(line)

		switch {
		case strings.HasPrefix(lower, "question"):
			flush()
			current = &Question{Text: line}
			started = true
		case started && isOption(line):
			current.Options = append(current.Options, line)
		case started && strings.HasPrefix(lower, "answer:"):
			_, after, _ := strings.Cut(line, ":")
			answer := strings.ToUpper(strings.TrimSpace(after))
			if current != nil {
				current.Answer = answer
			}
			res.Answers = append(res.Answers, answer)
			started = false
		}
	}
	flush()

	return res
}

func isOption(line string) bool {
	for _, m := range OptionMarkers {
		if strings.HasPrefix(line, m) {
			return true
		}
	}
	return false
}

// SelectedLetter returns the option letter of a chosen option string,
// i.e. the upper-cased text before the first ')'.
func SelectedLetter(option string) string {
	letter, _, _ := strings.Cut(option, ")")
	return strings.ToUpper(strings.TrimSpace(letter))
}

// Score counts the questions whose selected option matches the correct letter.
func Score(questions []Question, selected []string) int {
	score := 0
	for i := range min(len(questions), len(selected)) {
		if SelectedLetter(selected[i]) == questions[i].Answer {
			score++
		}
	}
	return score
}
