package tracker

import (
	"context"

	"github.com/p-n-ai/medstudy/internal/curriculum"
)

// HotTopicView is a hot topic with its check state.
type HotTopicView struct {
	curriculum.HotTopic
	Checked bool `json:"checked"`
}

// HotTopics returns the register in order with check states.
func (t *Tracker) HotTopics() []HotTopicView {
	var out []HotTopicView
	t.read(func(s *state) {
		topics := s.register.Topics()
		out = make([]HotTopicView, len(topics))
		for i, h := range topics {
			out[i] = HotTopicView{HotTopic: h, Checked: s.register.Checked(h.ID)}
		}
	})
	return out
}

// AddHotTopic appends a hot topic with a fresh stable id.
func (t *Tracker) AddHotTopic(ctx context.Context, h curriculum.HotTopic) (curriculum.HotTopic, error) {
	var added curriculum.HotTopic
	err := t.commit(ctx, EventHotTopicAdded, map[string]any{"name": h.Name, "category": h.Category}, func(s *state) error {
		reg, out, err := s.register.Add(h)
		if err != nil {
			return err
		}
		s.setRegister(reg)
		added = out
		return nil
	})
	return added, err
}

// UpdateHotTopic patches a hot topic. Its check state survives renames.
func (t *Tracker) UpdateHotTopic(ctx context.Context, id string, p curriculum.HotTopicPatch) (curriculum.HotTopic, error) {
	var updated curriculum.HotTopic
	err := t.commit(ctx, EventHotTopicUpdated, map[string]any{"hot_id": id}, func(s *state) error {
		reg, out, err := s.register.Update(id, p)
		if err != nil {
			return err
		}
		s.setRegister(reg)
		updated = out
		return nil
	})
	return updated, err
}

// DeleteHotTopic removes a hot topic and its check. Schedule refs to it
// dangle until pruned.
func (t *Tracker) DeleteHotTopic(ctx context.Context, id string) error {
	return t.commit(ctx, EventHotTopicDeleted, map[string]any{"hot_id": id}, func(s *state) error {
		reg, err := s.register.Delete(id)
		if err != nil {
			return err
		}
		s.setRegister(reg)
		return nil
	})
}

// ToggleHotTopic flips a hot topic's check and returns the new value.
func (t *Tracker) ToggleHotTopic(ctx context.Context, id string) (bool, error) {
	var checked bool
	err := t.commit(ctx, EventHotTopicToggled, map[string]any{"hot_id": id}, func(s *state) error {
		reg, on, err := s.register.Toggle(id)
		if err != nil {
			return err
		}
		s.setRegister(reg)
		checked = on
		return nil
	})
	return checked, err
}

// ResetHotTopics restores the built-in seed list, discarding every
// customization. Checks survive only for seed entries that were checked.
func (t *Tracker) ResetHotTopics(ctx context.Context) error {
	return t.commit(ctx, EventHotTopicsReset, map[string]any{"count": len(t.defaults.HotTopics)}, func(s *state) error {
		s.setRegister(s.register.Reset(t.defaults.HotTopics))
		return nil
	})
}
