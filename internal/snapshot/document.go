// Package snapshot defines the persisted study document, its tolerant
// decoding and legacy migration, backup import, and the storage backends
// that hold it.
package snapshot

import (
	"encoding/hex"
	"encoding/json"
	"errors"

	"golang.org/x/crypto/blake2b"

	"github.com/p-n-ai/medstudy/internal/curriculum"
	"github.com/p-n-ai/medstudy/internal/progress"
	"github.com/p-n-ai/medstudy/internal/schedule"
)

// Top-level document keys.
const (
	KeyAreas           = "areas"
	KeyHotTopics       = "hotTopics"
	KeyHotTopicChecks  = "hotTopicChecks"
	KeyWeeklySchedules = "weeklySchedules"
	KeyMonthlyPlans    = "monthlyPlans"
	KeyExams           = "exams"
	KeyNotes           = "notes"
	KeyFlashcards      = "flashcards"
	KeyTheme           = "theme"
	KeyPrimaryColor    = "primaryColor"
	KeyTargetExamName  = "targetExamName"
	KeyTargetExamDate  = "targetExamDate"
)

var ErrMalformed = errors.New("malformed snapshot")

// Note is a free-form study note.
type Note struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// Flashcard is a front/back review card tied to an area.
type Flashcard struct {
	ID           string `json:"id"`
	AreaID       string `json:"areaId"`
	Front        string `json:"front"`
	Back         string `json:"back"`
	LastReviewed string `json:"lastReviewed,omitempty"`
}

// Document is the whole persisted state, written wholesale after every
// mutation.
type Document struct {
	Areas           []curriculum.Area        `json:"areas"`
	HotTopics       []curriculum.HotTopic    `json:"hotTopics"`
	HotTopicChecks  map[string]bool          `json:"hotTopicChecks"`
	WeeklySchedules map[string]schedule.Week `json:"weeklySchedules"`
	MonthlyPlans    map[string]string        `json:"monthlyPlans"`
	Exams           []progress.ExamRecord    `json:"exams"`
	Notes           []Note                   `json:"notes"`
	Flashcards      []Flashcard              `json:"flashcards"`
	Theme           string                   `json:"theme"`
	PrimaryColor    string                   `json:"primaryColor"`
	TargetExamName  string                   `json:"targetExamName"`
	TargetExamDate  string                   `json:"targetExamDate"`
}

// Defaults supplies the value of every key missing from a stored document.
type Defaults struct {
	Areas          []curriculum.Area
	HotTopics      []curriculum.HotTopic
	Theme          string
	PrimaryColor   string
	TargetExamName string
	TargetExamDate string
}

// Document returns a fresh document holding only defaults.
func (d Defaults) Document() Document {
	doc := Document{
		Areas:          curriculum.New(d.Areas).Areas(),
		HotTopics:      append([]curriculum.HotTopic(nil), d.HotTopics...),
		Theme:          d.Theme,
		PrimaryColor:   d.PrimaryColor,
		TargetExamName: d.TargetExamName,
		TargetExamDate: d.TargetExamDate,
	}
	doc.normalize()
	return doc
}

// Encode serializes a document.
func Encode(doc Document) ([]byte, error) {
	doc.normalize()
	return json.Marshal(doc)
}

// Fingerprint returns a short content hash of encoded snapshot bytes.
func Fingerprint(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:16])
}

// normalize replaces nil collections with empty ones so the encoded form
// always carries every key.
func (doc *Document) normalize() {
	if doc.Areas == nil {
		doc.Areas = []curriculum.Area{}
	}
	if doc.HotTopics == nil {
		doc.HotTopics = []curriculum.HotTopic{}
	}
	if doc.HotTopicChecks == nil {
		doc.HotTopicChecks = map[string]bool{}
	}
	if doc.WeeklySchedules == nil {
		doc.WeeklySchedules = map[string]schedule.Week{}
	}
	if doc.MonthlyPlans == nil {
		doc.MonthlyPlans = map[string]string{}
	}
	if doc.Exams == nil {
		doc.Exams = []progress.ExamRecord{}
	}
	if doc.Notes == nil {
		doc.Notes = []Note{}
	}
	if doc.Flashcards == nil {
		doc.Flashcards = []Flashcard{}
	}
}
