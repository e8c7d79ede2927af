package progress

import (
	"errors"
	"math"
	"strings"
)

// ExamRecord is one mock-exam result.
type ExamRecord struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Date           string `json:"date"`
	TotalQuestions int    `json:"totalQuestions"`
	CorrectAnswers int    `json:"correctAnswers"`
	Observations   string `json:"observations,omitempty"`
}

var (
	ErrExamName    = errors.New("exam name is required")
	ErrExamTotal   = errors.New("total questions must be positive")
	ErrExamCorrect = errors.New("correct answers must be between 0 and total questions")
)

// Validate checks the fields required to record an exam.
func (e ExamRecord) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrExamName
	}
	if e.TotalQuestions <= 0 {
		return ErrExamTotal
	}
	if e.CorrectAnswers < 0 || e.CorrectAnswers > e.TotalQuestions {
		return ErrExamCorrect
	}
	return nil
}

func (e ExamRecord) ratio() float64 {
	if e.TotalQuestions <= 0 {
		return 0
	}
	return float64(e.CorrectAnswers) / float64(e.TotalQuestions)
}

// Percent is the record's score rounded to an integer percentage.
func (e ExamRecord) Percent() int {
	return int(math.Round(e.ratio() * 100))
}

// Band grades a score: "high" from 80%, "mid" from 65%, otherwise "low".
func (e ExamRecord) Band() string {
	switch p := e.Percent(); {
	case p >= 80:
		return "high"
	case p >= 65:
		return "mid"
	default:
		return "low"
	}
}

// ExamAverage is the mean of each record's unrounded ratio, rounded once to
// an integer percentage. No records yields 0; a record with no questions
// contributes a ratio of 0.
func ExamAverage(records []ExamRecord) int {
	if len(records) == 0 {
		return 0
	}
	var sum float64
	for _, r := range records {
		sum += r.ratio()
	}
	return int(math.Round(sum / float64(len(records)) * 100))
}
