package tracker

import (
	"errors"
	"fmt"

	"github.com/p-n-ai/medstudy/internal/curriculum"
	"github.com/p-n-ai/medstudy/internal/progress"
	"github.com/p-n-ai/medstudy/internal/schedule"
	"github.com/p-n-ai/medstudy/internal/snapshot"
)

// Error classes returned by Tracker operations. Match with errors.Is.
var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrMalformedImport = errors.New("malformed import")
)

var (
	errExamNotFound = errors.New("exam not found")
	errInvalidMonth = errors.New("month must be YYYY-MM")
	errInvalidDate  = errors.New("date must be YYYY-MM-DD")

	// errNoChange aborts a commit without persisting anything.
	errNoChange = errors.New("no change")
)

var validationErrors = []error{
	curriculum.ErrEmptyName,
	curriculum.ErrInvalidStatus,
	curriculum.ErrSubTopicRange,
	schedule.ErrInvalidWeekday,
	schedule.ErrInvalidRef,
	progress.ErrExamName,
	progress.ErrExamTotal,
	progress.ErrExamCorrect,
	errInvalidMonth,
	errInvalidDate,
}

var notFoundErrors = []error{
	curriculum.ErrAreaNotFound,
	curriculum.ErrTopicNotFound,
	curriculum.ErrSubAreaNotFound,
	curriculum.ErrHotTopicNotFound,
	errExamNotFound,
}

// classify tags a domain error with its error class.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return fmt.Errorf("%w: %w", ErrValidation, err)
		}
	}
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return fmt.Errorf("%w: %w", ErrNotFound, err)
		}
	}
	if errors.Is(err, snapshot.ErrMalformed) {
		return fmt.Errorf("%w: %w", ErrMalformedImport, err)
	}
	return err
}
