package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/p-n-ai/medstudy/internal/curriculum"
	"github.com/p-n-ai/medstudy/internal/progress"
	"github.com/p-n-ai/medstudy/internal/schedule"
)

// keyOrder fixes the decode order: hot topics must be known before the
// checks and schedules that reference them are migrated.
var keyOrder = []string{
	KeyAreas,
	KeyHotTopics,
	KeyHotTopicChecks,
	KeyWeeklySchedules,
	KeyMonthlyPlans,
	KeyExams,
	KeyNotes,
	KeyFlashcards,
	KeyTheme,
	KeyPrimaryColor,
	KeyTargetExamName,
	KeyTargetExamDate,
}

const legacyNotesTitle = "Notas"

// Decode reads a stored document. Missing keys take their default; a key
// whose value cannot be read is logged and also takes its default. Only a
// payload that is not a JSON object at all is an error. Empty data yields
// the defaults.
func Decode(data []byte, def Defaults) (Document, error) {
	doc := def.Document()
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}
	raw, err := splitKeys(data)
	if err != nil {
		return doc, err
	}

	d := decoder{}
	if err := d.apply(&doc, raw); err != nil {
		return def.Document(), err
	}
	return doc, nil
}

// Merge applies a backup on top of base. Only keys present in data are
// overwritten; everything else in base is kept. data must be valid JSON and
// pass ValidateImport, otherwise base is returned unchanged with an error
// wrapping ErrMalformed. The applied keys are returned in decode order.
func Merge(base Document, data []byte) (Document, []string, error) {
	if !json.Valid(data) {
		return base, nil, fmt.Errorf("%w: not valid JSON", ErrMalformed)
	}
	raw, err := splitKeys(data)
	if err != nil {
		return base, nil, err
	}
	if err := ValidateImport(data); err != nil {
		return base, nil, err
	}

	doc := base
	d := decoder{strict: true}
	if err := d.apply(&doc, raw); err != nil {
		return base, nil, err
	}
	doc.normalize()
	return doc, d.applied, nil
}

func splitKeys(data []byte) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: top level must be an object", ErrMalformed)
	}
	return raw, nil
}

type decoder struct {
	strict  bool
	applied []string

	checks map[string]bool
	weeks  map[string]map[string][]string
}

func (d *decoder) apply(doc *Document, raw map[string]json.RawMessage) error {
	for _, key := range keyOrder {
		msg, ok := raw[key]
		if !ok || bytes.Equal(bytes.TrimSpace(msg), []byte("null")) {
			continue
		}
		if err := d.decodeKey(doc, key, msg); err != nil {
			if d.strict {
				return fmt.Errorf("%w: key %q: %v", ErrMalformed, key, err)
			}
			slog.Warn("ignoring unreadable snapshot key", "key", key, "error", err)
			continue
		}
		d.applied = append(d.applied, key)
	}

	if d.has(KeyHotTopicChecks) {
		doc.HotTopicChecks = migrateChecks(d.checks, doc.HotTopics)
	}
	if d.has(KeyWeeklySchedules) {
		doc.WeeklySchedules = migrateSchedules(d.weeks, doc.HotTopics)
	}
	return nil
}

func (d *decoder) has(key string) bool {
	for _, k := range d.applied {
		if k == key {
			return true
		}
	}
	return false
}

func (d *decoder) decodeKey(doc *Document, key string, msg json.RawMessage) error {
	switch key {
	case KeyAreas:
		var areas []curriculum.Area
		if err := json.Unmarshal(msg, &areas); err != nil {
			return err
		}
		doc.Areas = cleanAreas(areas)
	case KeyHotTopics:
		var hot []curriculum.HotTopic
		if err := json.Unmarshal(msg, &hot); err != nil {
			return err
		}
		doc.HotTopics = curriculum.NewRegister(hot, nil).Topics()
	case KeyHotTopicChecks:
		return json.Unmarshal(msg, &d.checks)
	case KeyWeeklySchedules:
		return json.Unmarshal(msg, &d.weeks)
	case KeyMonthlyPlans:
		var plans map[string]string
		if err := json.Unmarshal(msg, &plans); err != nil {
			return err
		}
		doc.MonthlyPlans = migratePlans(plans)
	case KeyExams:
		var exams []progress.ExamRecord
		if err := json.Unmarshal(msg, &exams); err != nil {
			return err
		}
		for i := range exams {
			if exams[i].ID == "" {
				exams[i].ID = uuid.NewString()
			}
		}
		doc.Exams = exams
	case KeyNotes:
		notes, err := decodeNotes(msg)
		if err != nil {
			return err
		}
		doc.Notes = notes
	case KeyFlashcards:
		var cards []Flashcard
		if err := json.Unmarshal(msg, &cards); err != nil {
			return err
		}
		for i := range cards {
			if cards[i].ID == "" {
				cards[i].ID = uuid.NewString()
			}
		}
		doc.Flashcards = cards
	case KeyTheme:
		theme, err := decodeTheme(msg)
		if err != nil {
			return err
		}
		doc.Theme = theme
	case KeyPrimaryColor:
		return json.Unmarshal(msg, &doc.PrimaryColor)
	case KeyTargetExamName:
		return json.Unmarshal(msg, &doc.TargetExamName)
	case KeyTargetExamDate:
		return json.Unmarshal(msg, &doc.TargetExamDate)
	}
	return nil
}

// cleanAreas drops areas without an ID, gives ID-less topics a fresh one and
// resets unknown statuses to NOT_STARTED.
func cleanAreas(areas []curriculum.Area) []curriculum.Area {
	out := make([]curriculum.Area, 0, len(areas))
	for _, a := range areas {
		if a.ID == "" {
			continue
		}
		for i := range a.Topics {
			t := &a.Topics[i]
			if t.ID == "" {
				t.ID = uuid.NewString()
			}
			if !t.Status.Valid() {
				if t.Status != "" {
					slog.Warn("resetting unknown topic status", "topic_id", t.ID, "status", t.Status)
				}
				t.Status = curriculum.StatusNotStarted
			}
		}
		out = append(out, a)
	}
	return out
}

// migrateChecks re-keys completion checks by hot-topic ID. Older documents
// keyed them by name; those are matched against the current list.
func migrateChecks(raw map[string]bool, hot []curriculum.HotTopic) map[string]bool {
	ids := make(map[string]bool, len(hot))
	byName := make(map[string]string, len(hot))
	for _, h := range hot {
		ids[h.ID] = true
		if _, dup := byName[h.Name]; !dup {
			byName[h.Name] = h.ID
		}
	}

	out := make(map[string]bool)
	migrated := 0
	for key, checked := range raw {
		if !checked {
			continue
		}
		if ids[key] {
			out[key] = true
			continue
		}
		if id, ok := byName[key]; ok {
			out[id] = true
			migrated++
		}
	}
	if migrated > 0 {
		slog.Info("migrated name-keyed hot topic checks", "count", migrated)
	}
	return out
}

// migrateSchedules parses stored refs, maps positional "hot_<n>" refs onto
// the hot-topic IDs at those positions and canonicalizes month labels.
// Positions past the end of the list become hot refs that resolve nowhere.
func migrateSchedules(raw map[string]map[string][]string, hot []curriculum.HotTopic) map[string]schedule.Week {
	months := make(map[string]schedule.Week, len(raw))
	migrated := 0
	for label, days := range raw {
		month := schedule.NormalizeMonthID(label)
		week := months[month]
		if week == nil {
			week = make(schedule.Week)
			months[month] = week
		}
		for dayKey, refs := range days {
			n, err := strconv.Atoi(dayKey)
			day := schedule.Weekday(n)
			if err != nil || !day.Valid() {
				slog.Warn("dropping schedule day with invalid weekday", "month", label, "day", dayKey)
				continue
			}
			for _, s := range refs {
				ref, idx, err := schedule.ParseLegacyRef(s)
				if err != nil {
					continue
				}
				if idx >= 0 {
					migrated++
					if idx < len(hot) {
						ref = schedule.Hot(hot[idx].ID)
					} else {
						ref = schedule.Hot(s)
					}
				}
				week[day] = append(week[day], ref)
			}
		}
	}
	if migrated > 0 {
		slog.Info("migrated positional hot topic references", "count", migrated)
	}
	return schedule.NewStore(months).Export()
}

// migratePlans canonicalizes month labels. A canonical key wins over a
// legacy label for the same month.
func migratePlans(raw map[string]string) map[string]string {
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if schedule.ValidMonthID(k) && v != "" {
			out[k] = v
		}
	}
	for k, v := range raw {
		if schedule.ValidMonthID(k) || v == "" {
			continue
		}
		month := schedule.NormalizeMonthID(k)
		if _, ok := out[month]; !ok {
			out[month] = v
		}
	}
	return out
}

// decodeNotes accepts the note list or the older single free-text note.
func decodeNotes(msg json.RawMessage) ([]Note, error) {
	var notes []Note
	if err := json.Unmarshal(msg, &notes); err == nil {
		for i := range notes {
			if notes[i].ID == "" {
				notes[i].ID = uuid.NewString()
			}
		}
		return notes, nil
	}

	var text string
	if err := json.Unmarshal(msg, &text); err != nil {
		return nil, fmt.Errorf("notes must be a list or a string")
	}
	if text == "" {
		return []Note{}, nil
	}
	return []Note{{ID: uuid.NewString(), Title: legacyNotesTitle, Content: text}}, nil
}

// decodeTheme accepts a theme name or the older dark-mode boolean.
func decodeTheme(msg json.RawMessage) (string, error) {
	var theme string
	if err := json.Unmarshal(msg, &theme); err == nil {
		return theme, nil
	}
	var dark bool
	if err := json.Unmarshal(msg, &dark); err != nil {
		return "", fmt.Errorf("theme must be a string or a boolean")
	}
	if dark {
		return "dark", nil
	}
	return "light", nil
}
