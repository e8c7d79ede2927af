package progress_test

import (
	"testing"

	"github.com/p-n-ai/medstudy/internal/curriculum"
	"github.com/p-n-ai/medstudy/internal/progress"
	"github.com/p-n-ai/medstudy/internal/schedule"
)

func TestResolve(t *testing.T) {
	c := curriculum.New([]curriculum.Area{{
		ID: "go", Name: "Ginecologia e Obstetrícia", Color: "pink",
		Topics: []curriculum.Topic{{ID: "go-1", Name: "Pré-natal", SubArea: "Obstetrícia"}},
	}})
	reg := curriculum.NewRegister([]curriculum.HotTopic{
		{ID: "hot-hpp", Name: "HPP", Area: "Obstetrícia", Category: "Ginecologia e Obstetrícia"},
		{ID: "hot-x", Name: "Outro", Category: "Ortopedia"},
	}, map[string]bool{"hot-hpp": true})

	res := progress.Resolve(c, reg)
	if len(res) != 3 {
		t.Fatalf("len(Resolve()) = %d, want 3", len(res))
	}

	topic, ok := res.Lookup(schedule.Curriculum("go-1"))
	if !ok {
		t.Fatal("Lookup(go-1) not found")
	}
	want := progress.Descriptor{
		Ref:          schedule.Curriculum("go-1"),
		Name:         "Pré-natal",
		AreaLabel:    "Ginecologia e Obstetrícia",
		SubAreaLabel: "Obstetrícia",
		Color:        "pink",
		Status:       curriculum.StatusNotStarted,
	}
	if topic != want {
		t.Errorf("Lookup(go-1) = %+v, want %+v", topic, want)
	}

	hot, _ := res.Lookup(schedule.Hot("hot-hpp"))
	if hot.Status != curriculum.StatusCompleted || hot.Color != "pink" || hot.SubAreaLabel != "Obstetrícia" {
		t.Errorf("Lookup(hot-hpp) = %+v", hot)
	}
	other, _ := res.Lookup(schedule.Hot("hot-x"))
	if other.Status != curriculum.StatusNotStarted || other.Color != "orange" {
		t.Errorf("Lookup(hot-x) = %+v", other)
	}

	if _, ok := res.Lookup(schedule.Curriculum("hot-hpp")); ok {
		t.Error("curriculum namespace resolved a hot ID")
	}
}

func TestHotColor(t *testing.T) {
	tests := map[string]string{
		"Clínica Médica":            "blue",
		"Cirurgia Geral":            "red",
		"Ginecologia e Obstetrícia": "pink",
		"Pediatria":                 "green",
		"Medicina Preventiva":       "indigo",
		"":                          "orange",
	}
	for category, want := range tests {
		if got := progress.HotColor(category); got != want {
			t.Errorf("HotColor(%q) = %q, want %q", category, got, want)
		}
	}
}

func TestMemo(t *testing.T) {
	var memo progress.Memo
	c := cardio()
	reg := hotRegister(1)

	first := memo.Get(progress.MemoKey{CurriculumVersion: 1, RegisterVersion: 1}, c, reg)
	renamed, _ := c.RenameTopic("cardio", "c1", "Hipertensão")

	cached := memo.Get(progress.MemoKey{CurriculumVersion: 1, RegisterVersion: 1}, renamed, reg)
	if d, _ := cached.Lookup(schedule.Curriculum("c1")); d.Name != "HAS" {
		t.Errorf("same key rebuilt the map: %q", d.Name)
	}
	if len(first) != len(cached) {
		t.Error("cached map differs from first build")
	}

	fresh := memo.Get(progress.MemoKey{CurriculumVersion: 2, RegisterVersion: 1}, renamed, reg)
	if d, _ := fresh.Lookup(schedule.Curriculum("c1")); d.Name != "Hipertensão" {
		t.Errorf("new key returned stale name %q", d.Name)
	}
}
