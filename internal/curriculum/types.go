package curriculum

// Status is the study progress of a curriculum topic.
type Status string

const (
	StatusNotStarted Status = "NOT_STARTED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusReviewed   Status = "REVIEWED"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted, StatusReviewed:
		return true
	default:
		return false
	}
}

// Done reports whether s counts as finished for progress purposes.
func (s Status) Done() bool {
	return s == StatusCompleted || s == StatusReviewed
}

// Toggled returns the status after a completion toggle. Only COMPLETED flips
// back to NOT_STARTED; every other status becomes COMPLETED.
func (s Status) Toggled() Status {
	if s == StatusCompleted {
		return StatusNotStarted
	}
	return StatusCompleted
}

// Topic is a single study item owned by exactly one Area.
type Topic struct {
	ID           string   `json:"id" yaml:"id"`
	Name         string   `json:"name" yaml:"name"`
	SubArea      string   `json:"subArea,omitempty" yaml:"sub_area"`
	Status       Status   `json:"status" yaml:"status"`
	Observations string   `json:"observations,omitempty" yaml:"observations"`
	SubTopics    []string `json:"subTopics,omitempty" yaml:"sub_topics"`
}

// Area is a top-level curriculum category (a medical specialty).
type Area struct {
	ID      string  `json:"id" yaml:"id"`
	Name    string  `json:"name" yaml:"name"`
	Icon    string  `json:"icon" yaml:"icon"`
	Color   string  `json:"color" yaml:"color"`
	Topics  []Topic `json:"topics" yaml:"topics"`
	Summary string  `json:"summary,omitempty" yaml:"summary"`
}

// HotTopic is a high-yield item tracked outside the formal curriculum.
type HotTopic struct {
	ID           string `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	Area         string `json:"area" yaml:"area"`
	Category     string `json:"category" yaml:"category"`
	Observations string `json:"observations,omitempty" yaml:"observations"`
}

// Seed is the on-disk layout of a curriculum seed file.
type Seed struct {
	Areas     []Area     `yaml:"areas"`
	HotTopics []HotTopic `yaml:"hot_topics"`
}

func cloneTopic(t Topic) Topic {
	if t.SubTopics != nil {
		t.SubTopics = append([]string(nil), t.SubTopics...)
	}
	return t
}

func cloneArea(a Area) Area {
	topics := make([]Topic, len(a.Topics))
	for i, t := range a.Topics {
		topics[i] = cloneTopic(t)
	}
	a.Topics = topics
	return a
}

func cloneAreas(areas []Area) []Area {
	out := make([]Area, len(areas))
	for i, a := range areas {
		out[i] = cloneArea(a)
	}
	return out
}
