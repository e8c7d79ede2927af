package curriculum

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrAreaNotFound     = errors.New("area not found")
	ErrTopicNotFound    = errors.New("topic not found")
	ErrEmptyName        = errors.New("name is required")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrSubTopicRange    = errors.New("sub-topic index out of range")
	ErrSubAreaNotFound  = errors.New("sub-area not found")
	ErrHotTopicNotFound = errors.New("hot topic not found")
)

// Curriculum is an immutable snapshot of the area/topic taxonomy. Every
// mutator returns a new Curriculum and leaves the receiver untouched, so a
// value can be handed to readers and the persistence layer without locking.
type Curriculum struct {
	areas []Area
}

// New builds a Curriculum from a deep copy of areas. Topics without a status
// start as NOT_STARTED.
func New(areas []Area) Curriculum {
	c := Curriculum{areas: cloneAreas(areas)}
	for ai := range c.areas {
		for ti := range c.areas[ai].Topics {
			if c.areas[ai].Topics[ti].Status == "" {
				c.areas[ai].Topics[ti].Status = StatusNotStarted
			}
		}
	}
	return c
}

// Areas returns a deep copy of all areas in order.
func (c Curriculum) Areas() []Area {
	return cloneAreas(c.areas)
}

// Area returns a copy of the area with the given ID.
func (c Curriculum) Area(id string) (Area, bool) {
	i := c.areaIndex(id)
	if i < 0 {
		return Area{}, false
	}
	return cloneArea(c.areas[i]), true
}

// FindTopic locates a topic by ID across all areas.
func (c Curriculum) FindTopic(topicID string) (Area, Topic, bool) {
	for _, a := range c.areas {
		for _, t := range a.Topics {
			if t.ID == topicID {
				return cloneArea(a), cloneTopic(t), true
			}
		}
	}
	return Area{}, Topic{}, false
}

// TopicCount returns the number of topics across all areas.
func (c Curriculum) TopicCount() int {
	n := 0
	for _, a := range c.areas {
		n += len(a.Topics)
	}
	return n
}

// AddTopic appends a new NOT_STARTED topic with a fresh ID to an area.
func (c Curriculum) AddTopic(areaID, name, subArea string) (Curriculum, Topic, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return c, Topic{}, ErrEmptyName
	}
	ai := c.areaIndex(areaID)
	if ai < 0 {
		return c, Topic{}, fmt.Errorf("%w: %s", ErrAreaNotFound, areaID)
	}

	topic := Topic{
		ID:      uuid.NewString(),
		Name:    name,
		SubArea: strings.TrimSpace(subArea),
		Status:  StatusNotStarted,
	}
	next := c.clone()
	next.areas[ai].Topics = append(next.areas[ai].Topics, topic)
	return next, cloneTopic(topic), nil
}

// DeleteTopic removes a topic from its area. Schedule entries pointing at it
// are left alone and become dangling.
func (c Curriculum) DeleteTopic(areaID, topicID string) (Curriculum, error) {
	ai, ti, err := c.locate(areaID, topicID)
	if err != nil {
		return c, err
	}
	next := c.clone()
	topics := next.areas[ai].Topics
	next.areas[ai].Topics = append(topics[:ti:ti], topics[ti+1:]...)
	return next, nil
}

// SetStatus sets a topic's status to any valid value.
func (c Curriculum) SetStatus(areaID, topicID string, status Status) (Curriculum, error) {
	if !status.Valid() {
		return c, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return c.update(areaID, topicID, func(t *Topic) error {
		t.Status = status
		return nil
	})
}

// ToggleTopic flips a topic between COMPLETED and NOT_STARTED, looking it up
// across all areas. It returns the new status.
func (c Curriculum) ToggleTopic(topicID string) (Curriculum, Status, error) {
	area, _, ok := c.FindTopic(topicID)
	if !ok {
		return c, "", fmt.Errorf("%w: %s", ErrTopicNotFound, topicID)
	}
	var status Status
	next, err := c.update(area.ID, topicID, func(t *Topic) error {
		status = t.Status.Toggled()
		t.Status = status
		return nil
	})
	return next, status, err
}

// RenameTopic changes a topic's display name.
func (c Curriculum) RenameTopic(areaID, topicID, name string) (Curriculum, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return c, ErrEmptyName
	}
	return c.update(areaID, topicID, func(t *Topic) error {
		t.Name = name
		return nil
	})
}

// SetObservations replaces a topic's free-text observations.
func (c Curriculum) SetObservations(areaID, topicID, observations string) (Curriculum, error) {
	return c.update(areaID, topicID, func(t *Topic) error {
		t.Observations = observations
		return nil
	})
}

// AddSubTopic appends a sub-topic line to a topic.
func (c Curriculum) AddSubTopic(areaID, topicID, subTopic string) (Curriculum, error) {
	subTopic = strings.TrimSpace(subTopic)
	if subTopic == "" {
		return c, ErrEmptyName
	}
	return c.update(areaID, topicID, func(t *Topic) error {
		t.SubTopics = append(t.SubTopics, subTopic)
		return nil
	})
}

// RemoveSubTopic removes the sub-topic at index.
func (c Curriculum) RemoveSubTopic(areaID, topicID string, index int) (Curriculum, error) {
	return c.update(areaID, topicID, func(t *Topic) error {
		if index < 0 || index >= len(t.SubTopics) {
			return fmt.Errorf("%w: %d", ErrSubTopicRange, index)
		}
		t.SubTopics = append(t.SubTopics[:index:index], t.SubTopics[index+1:]...)
		return nil
	})
}

// RenameSubArea rewrites the sub-area label of every matching topic in an area.
// It returns the number of topics touched.
func (c Curriculum) RenameSubArea(areaID, oldName, newName string) (Curriculum, int, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return c, 0, ErrEmptyName
	}
	ai := c.areaIndex(areaID)
	if ai < 0 {
		return c, 0, fmt.Errorf("%w: %s", ErrAreaNotFound, areaID)
	}

	next := c.clone()
	n := 0
	for i := range next.areas[ai].Topics {
		if next.areas[ai].Topics[i].SubArea == oldName {
			next.areas[ai].Topics[i].SubArea = newName
			n++
		}
	}
	if n == 0 {
		return c, 0, fmt.Errorf("%w: %s", ErrSubAreaNotFound, oldName)
	}
	return next, n, nil
}

// DeleteSubArea removes every topic of an area whose sub-area matches. It is
// destructive; callers confirm with the user first. The removed topic IDs are
// returned.
func (c Curriculum) DeleteSubArea(areaID, subArea string) (Curriculum, []string, error) {
	ai := c.areaIndex(areaID)
	if ai < 0 {
		return c, nil, fmt.Errorf("%w: %s", ErrAreaNotFound, areaID)
	}

	next := c.clone()
	kept := next.areas[ai].Topics[:0]
	var removed []string
	for _, t := range next.areas[ai].Topics {
		if t.SubArea == subArea {
			removed = append(removed, t.ID)
			continue
		}
		kept = append(kept, t)
	}
	if len(removed) == 0 {
		return c, nil, fmt.Errorf("%w: %s", ErrSubAreaNotFound, subArea)
	}
	next.areas[ai].Topics = kept
	return next, removed, nil
}

// SetSummary replaces an area's summary text.
func (c Curriculum) SetSummary(areaID, summary string) (Curriculum, error) {
	ai := c.areaIndex(areaID)
	if ai < 0 {
		return c, fmt.Errorf("%w: %s", ErrAreaNotFound, areaID)
	}
	next := c.clone()
	next.areas[ai].Summary = summary
	return next, nil
}

func (c Curriculum) update(areaID, topicID string, fn func(*Topic) error) (Curriculum, error) {
	ai, ti, err := c.locate(areaID, topicID)
	if err != nil {
		return c, err
	}
	next := c.clone()
	if err := fn(&next.areas[ai].Topics[ti]); err != nil {
		return c, err
	}
	return next, nil
}

func (c Curriculum) locate(areaID, topicID string) (int, int, error) {
	ai := c.areaIndex(areaID)
	if ai < 0 {
		return -1, -1, fmt.Errorf("%w: %s", ErrAreaNotFound, areaID)
	}
	for ti, t := range c.areas[ai].Topics {
		if t.ID == topicID {
			return ai, ti, nil
		}
	}
	return -1, -1, fmt.Errorf("%w: %s", ErrTopicNotFound, topicID)
}

func (c Curriculum) areaIndex(id string) int {
	for i, a := range c.areas {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func (c Curriculum) clone() Curriculum {
	return Curriculum{areas: cloneAreas(c.areas)}
}
