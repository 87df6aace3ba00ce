package grading

import "testing"

func TestGrade_MultipleChoice(t *testing.T) {
	q := Question{Type: MultipleChoice, CorrectOptionIDs: []string{"b"}}

	tests := []struct {
		selected []string
		want     Verdict
	}{
		{[]string{"b"}, Correct},
		{[]string{" b "}, Correct},
		{[]string{"a"}, Incorrect},
		{nil, Incorrect},
		{[]string{"b", "b"}, Incorrect},
	}
	for _, tc := range tests {
		if got := Grade(q, Answer{Selected: tc.selected}); got != tc.want {
			t.Errorf("Grade(mc b, %v) = %s, want %s", tc.selected, got, tc.want)
		}
	}
}

func TestGrade_TrueFalse(t *testing.T) {
	q := Question{Type: TrueFalse, CorrectOptionIDs: []string{"true"}}
	if got := Grade(q, Answer{Selected: []string{"true"}}); got != Correct {
		t.Fatalf("got %s, want correct", got)
	}
	if got := Grade(q, Answer{Selected: []string{"false"}}); got != Incorrect {
		t.Fatalf("got %s, want incorrect", got)
	}
}

func TestGrade_MultipleSelectOrderIndependent(t *testing.T) {
	q := Question{Type: MultipleSelect, CorrectOptionIDs: []string{"a", "b"}}

	tests := []struct {
		selected []string
		want     Verdict
	}{
		{[]string{"a", "b"}, Correct},
		{[]string{"b", "a"}, Correct},
		{[]string{"b", "a", "a"}, Correct},
		{[]string{"a"}, Incorrect},
		{[]string{"a", "b", "c"}, Incorrect},
		{nil, Incorrect},
	}
	for _, tc := range tests {
		if got := Grade(q, Answer{Selected: tc.selected}); got != tc.want {
			t.Errorf("Grade(ms {a,b}, %v) = %s, want %s", tc.selected, got, tc.want)
		}
	}
}

func TestGrade_CodeOutputWhitespace(t *testing.T) {
	q := Question{Type: CodeOutput, ExpectedOutput: "hello\n  world\n"}

	tests := []struct {
		text string
		want Verdict
	}{
		{"hello world", Correct},
		{"  hello\t\tworld ", Correct},
		{"hello\r\nworld", Correct},
		{"helloworld", Incorrect},
		{"Hello world", Incorrect},
		{"", Incorrect},
	}
	for _, tc := range tests {
		if got := Grade(q, Answer{Text: tc.text}); got != tc.want {
			t.Errorf("Grade(code_output, %q) = %s, want %s", tc.text, got, tc.want)
		}
	}
}

func TestGrade_ManualReviewTypes(t *testing.T) {
	for _, typ := range []QuestionType{CodeCompletion, ShortAnswer} {
		got := Grade(Question{Type: typ}, Answer{Text: "anything"})
		if got != NeedsManualReview {
			t.Errorf("Grade(%s) = %s, want needs_manual_review", typ, got)
		}
		if typ.AutoGradable() {
			t.Errorf("%s should not be auto-gradable", typ)
		}
	}
}

func TestGrade_UnknownType(t *testing.T) {
	q := Question{Type: "essay", CorrectOptionIDs: []string{"a"}}
	if got := Grade(q, Answer{Selected: []string{"a"}}); got != Incorrect {
		t.Fatalf("got %s, want incorrect", got)
	}
}
