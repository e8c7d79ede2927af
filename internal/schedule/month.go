package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/p-n-ai/medstudy/internal/curriculum"
)

const monthLayout = "2006-01"

var monthNames = []string{
	"janeiro", "fevereiro", "marco", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// MonthID returns the canonical month ID ("2026-03") for t.
func MonthID(t time.Time) string { return t.Format(monthLayout) }

// ValidMonthID reports whether s is a canonical month ID.
func ValidMonthID(s string) bool {
	_, err := time.Parse(monthLayout, s)
	return err == nil
}

// NormalizeMonthID converts a month label to the canonical ID. It accepts the
// canonical form and Portuguese labels such as "Março 2026". Anything else is
// returned trimmed and unchanged.
func NormalizeMonthID(s string) string {
	s = strings.TrimSpace(s)
	if ValidMonthID(s) {
		return s
	}
	fields := strings.Fields(curriculum.Fold(s))
	if len(fields) == 3 && fields[1] == "de" {
		fields = []string{fields[0], fields[2]}
	}
	if len(fields) != 2 {
		return s
	}
	year, err := strconv.Atoi(fields[1])
	if err != nil || year < 1000 || year > 9999 {
		return s
	}
	for i, name := range monthNames {
		if fields[0] == name {
			return fmt.Sprintf("%04d-%02d", year, i+1)
		}
	}
	return s
}
