package content

import (
	"strings"
	"text/template"
)

var promptTemplate = template.Must(template.New("lesson").Parse(
	`Teach about {{.Name}} in an engaging and understandable way suitable for a child of age {{.Age}}.
Provide a {{.Length}} lesson with headings in bold and use bullet points where appropriate to enhance understanding.

After teaching, create a 5-question multiple-choice quiz about {{.Name}} suitable for a child of age {{.Age}}.
Provide options A), B), C), D) for each question, and indicate the correct answer in the format 'Answer: X' where X is the correct option letter.

Ensure that the quiz starts with 'Quiz:' and that each question is formatted as follows:

Question X: [Question text]
A) [Option A]
B) [Option B]
C) [Option C]
D) [Option D]
Answer: [Correct option letter]

Do not include any additional text or explanations.`))

// BuildPrompt renders the lesson and quiz request for a topic.
func BuildPrompt(name, ageLevel string, length LessonLength) string {
	var b strings.Builder
	// the template has no failure modes for string fields
	_ = promptTemplate.Execute(&b, struct {
		Name, Age, Length string
	}{name, ageLevel, string(length)})
	return b.String()
}

// QuizMarker separates the lesson from the quiz in generated text.
const QuizMarker = "Quiz:"

// SplitGenerated splits generated text on the first QuizMarker. The quiz part
// keeps the marker. Without a marker the whole text is the lesson.
func SplitGenerated(text string) (lesson, quizText string) {
	before, after, found := strings.Cut(text, QuizMarker)
	if !found {
		return strings.TrimSpace(text), ""
	}
	return strings.TrimSpace(before), strings.TrimSpace(QuizMarker + after)
}
