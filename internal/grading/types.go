package grading

// QuestionType identifies how a question is auto-graded.
type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	MultipleSelect QuestionType = "multiple_select"
	TrueFalse      QuestionType = "true_false"
	CodeOutput     QuestionType = "code_output"
	CodeCompletion QuestionType = "code_completion"
	ShortAnswer    QuestionType = "short_answer"
)

// Verdict is the outcome of grading one answer.
type Verdict string

const (
	Correct   Verdict = "correct"
	Incorrect Verdict = "incorrect"
	// NeedsManualReview means the answer cannot be auto-graded. It earns no
	// points but is reported separately from Incorrect.
	NeedsManualReview Verdict = "needs_manual_review"
)

// Question carries the type-specific correctness data of a question.
type Question struct {
	ID               string
	Type             QuestionType
	Points           float64
	SkillIDs         []string
	CorrectOptionIDs []string
	ExpectedOutput   string
}

// Answer is a learner's response. Option-based questions use Selected,
// code_output uses Text.
type Answer struct {
	Selected []string `json:"selected,omitempty"`
	Text     string   `json:"text,omitempty"`
}

// AutoGradable reports whether questions of type t get a definite verdict.
func (t QuestionType) AutoGradable() bool {
	switch t {
	case MultipleChoice, MultipleSelect, TrueFalse, CodeOutput:
		return true
	}
	return false
}
