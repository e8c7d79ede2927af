package tracker

import (
	"context"

	"github.com/p-n-ai/medstudy/internal/curriculum"
)

// TopicPatch carries optional updates for a curriculum topic. Nil fields are
// left unchanged.
type TopicPatch struct {
	Name         *string            `json:"name,omitempty"`
	Status       *curriculum.Status `json:"status,omitempty"`
	Observations *string            `json:"observations,omitempty"`
}

// Areas returns the curriculum areas in order.
func (t *Tracker) Areas() []curriculum.Area {
	var out []curriculum.Area
	t.read(func(s *state) { out = s.curriculum.Areas() })
	return out
}

// Area returns one area by id.
func (t *Tracker) Area(areaID string) (curriculum.Area, error) {
	var (
		a  curriculum.Area
		ok bool
	)
	t.read(func(s *state) { a, ok = s.curriculum.Area(areaID) })
	if !ok {
		return curriculum.Area{}, classify(curriculum.ErrAreaNotFound)
	}
	return a, nil
}

// AddTopic appends a new NOT_STARTED topic to an area.
func (t *Tracker) AddTopic(ctx context.Context, areaID, name, subArea string) (curriculum.Topic, error) {
	var topic curriculum.Topic
	err := t.commit(ctx, EventTopicAdded, map[string]any{"area_id": areaID, "name": name}, func(s *state) error {
		c, added, err := s.curriculum.AddTopic(areaID, name, subArea)
		if err != nil {
			return err
		}
		s.setCurriculum(c)
		topic = added
		return nil
	})
	return topic, err
}

// DeleteTopic removes a topic. Schedule entries that referenced it are left
// in place and skipped at read time until PruneDanglingReferences runs.
func (t *Tracker) DeleteTopic(ctx context.Context, areaID, topicID string) error {
	return t.commit(ctx, EventTopicDeleted, map[string]any{"area_id": areaID, "topic_id": topicID}, func(s *state) error {
		c, err := s.curriculum.DeleteTopic(areaID, topicID)
		if err != nil {
			return err
		}
		s.setCurriculum(c)
		return nil
	})
}

// SetStatus sets a topic's status to any of the four statuses.
func (t *Tracker) SetStatus(ctx context.Context, areaID, topicID string, status curriculum.Status) error {
	return t.UpdateTopic(ctx, areaID, topicID, TopicPatch{Status: &status})
}

// UpdateTopic applies a patch to a topic as a single mutation.
func (t *Tracker) UpdateTopic(ctx context.Context, areaID, topicID string, p TopicPatch) error {
	data := map[string]any{"area_id": areaID, "topic_id": topicID}
	if p.Status != nil {
		data["status"] = string(*p.Status)
	}
	return t.commit(ctx, EventTopicUpdated, data, func(s *state) error {
		if p.Name == nil && p.Status == nil && p.Observations == nil {
			if _, ok := s.curriculum.Area(areaID); !ok {
				return curriculum.ErrAreaNotFound
			}
			if a, _, ok := s.curriculum.FindTopic(topicID); !ok || a.ID != areaID {
				return curriculum.ErrTopicNotFound
			}
			return errNoChange
		}
		c := s.curriculum
		var err error
		if p.Name != nil {
			if c, err = c.RenameTopic(areaID, topicID, *p.Name); err != nil {
				return err
			}
		}
		if p.Status != nil {
			if c, err = c.SetStatus(areaID, topicID, *p.Status); err != nil {
				return err
			}
		}
		if p.Observations != nil {
			if c, err = c.SetObservations(areaID, topicID, *p.Observations); err != nil {
				return err
			}
		}
		s.setCurriculum(c)
		return nil
	})
}

// ToggleTopic flips a topic between COMPLETED and NOT_STARTED. Any status
// other than COMPLETED becomes COMPLETED.
func (t *Tracker) ToggleTopic(ctx context.Context, topicID string) (curriculum.Status, error) {
	var status curriculum.Status
	err := t.commit(ctx, EventTopicToggled, map[string]any{"topic_id": topicID}, func(s *state) error {
		c, next, err := s.curriculum.ToggleTopic(topicID)
		if err != nil {
			return err
		}
		s.setCurriculum(c)
		status = next
		return nil
	})
	return status, err
}

// AddSubTopic appends a sub-topic line to a topic.
func (t *Tracker) AddSubTopic(ctx context.Context, areaID, topicID, text string) error {
	return t.commit(ctx, EventTopicUpdated, map[string]any{"area_id": areaID, "topic_id": topicID}, func(s *state) error {
		c, err := s.curriculum.AddSubTopic(areaID, topicID, text)
		if err != nil {
			return err
		}
		s.setCurriculum(c)
		return nil
	})
}

// RemoveSubTopic removes the sub-topic at index.
func (t *Tracker) RemoveSubTopic(ctx context.Context, areaID, topicID string, index int) error {
	return t.commit(ctx, EventTopicUpdated, map[string]any{"area_id": areaID, "topic_id": topicID, "index": index}, func(s *state) error {
		c, err := s.curriculum.RemoveSubTopic(areaID, topicID, index)
		if err != nil {
			return err
		}
		s.setCurriculum(c)
		return nil
	})
}

// RenameSubArea rewrites the sub-area label of every matching topic in an
// area and returns how many topics changed.
func (t *Tracker) RenameSubArea(ctx context.Context, areaID, oldName, newName string) (int, error) {
	var n int
	err := t.commit(ctx, EventSubAreaRenamed, map[string]any{"area_id": areaID, "from": oldName, "to": newName}, func(s *state) error {
		c, renamed, err := s.curriculum.RenameSubArea(areaID, oldName, newName)
		if err != nil {
			return err
		}
		s.setCurriculum(c)
		n = renamed
		return nil
	})
	return n, err
}

// DeleteSubArea removes every topic of an area under the given sub-area and
// returns their ids. This is destructive; callers confirm before invoking it.
func (t *Tracker) DeleteSubArea(ctx context.Context, areaID, subArea string) ([]string, error) {
	var removed []string
	err := t.commit(ctx, EventSubAreaDeleted, map[string]any{"area_id": areaID, "sub_area": subArea}, func(s *state) error {
		c, ids, err := s.curriculum.DeleteSubArea(areaID, subArea)
		if err != nil {
			return err
		}
		s.setCurriculum(c)
		removed = ids
		return nil
	})
	return removed, err
}

// SetAreaSummary replaces an area's free-text summary.
func (t *Tracker) SetAreaSummary(ctx context.Context, areaID, summary string) error {
	return t.commit(ctx, EventAreaSummarySet, map[string]any{"area_id": areaID}, func(s *state) error {
		c, err := s.curriculum.SetSummary(areaID, summary)
		if err != nil {
			return err
		}
		s.setCurriculum(c)
		return nil
	})
}
