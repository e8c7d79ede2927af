// Package report renders the study state as an XLSX workbook.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/medstudy/internal/curriculum"
	"github.com/p-n-ai/medstudy/internal/progress"
	"github.com/p-n-ai/medstudy/internal/tracker"
)

// Sheet names, in workbook order.
const (
	SheetSummary  = "Resumo"
	SheetAreas    = "Áreas"
	SheetHot      = "Temas Quentes"
	SheetSchedule = "Cronograma"
	SheetExams    = "Simulados"
)

var statusLabels = map[curriculum.Status]string{
	curriculum.StatusNotStarted: "Não iniciado",
	curriculum.StatusInProgress: "Em andamento",
	curriculum.StatusCompleted:  "Concluído",
	curriculum.StatusReviewed:   "Revisado",
}

// MonthData is one scheduled month.
type MonthData struct {
	Month  string
	Plan   string
	Topics []progress.Descriptor
}

// Data is everything the workbook shows.
type Data struct {
	GeneratedAt time.Time
	ExamName    string
	ExamDate    string
	Dashboard   progress.Dashboard
	Areas       []curriculum.Area
	Hot         []tracker.HotTopicView
	Months      []MonthData
	Exams       []progress.ExamRecord
	ExamAverage int
}

// Collect reads a report's data from the tracker.
func Collect(t *tracker.Tracker, now time.Time) Data {
	prefs := t.Preferences()
	d := Data{
		GeneratedAt: now,
		ExamName:    prefs.TargetExamName,
		ExamDate:    prefs.TargetExamDate,
		Dashboard:   t.Dashboard(),
		Areas:       t.Areas(),
		Hot:         t.HotTopics(),
		Exams:       t.Exams(),
		ExamAverage: t.ExamAverage(),
	}
	for _, m := range t.Months() {
		d.Months = append(d.Months, MonthData{Month: m, Plan: t.Plan(m), Topics: t.MonthRollup(m)})
	}
	return d
}

// WriteXLSX writes the workbook to w.
func WriteXLSX(w io.Writer, d Data) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1D4ED8"}},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	b := &builder{f: f, header: header}
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("renaming first sheet: %w", err)
	}
	b.summary(d)
	b.areas(d)
	b.hot(d)
	b.schedule(d)
	b.exams(d)
	if b.err != nil {
		return b.err
	}

	f.SetActiveSheet(0)
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// builder writes rows and keeps the first error.
type builder struct {
	f      *excelize.File
	header int
	err    error
}

func (b *builder) sheet(name string, widths map[string]float64, head ...any) {
	if b.err != nil {
		return
	}
	if name != SheetSummary {
		if _, err := b.f.NewSheet(name); err != nil {
			b.err = fmt.Errorf("creating sheet %s: %w", name, err)
			return
		}
	}
	for col, width := range widths {
		if err := b.f.SetColWidth(name, col, col, width); err != nil {
			b.err = fmt.Errorf("sizing %s!%s: %w", name, col, err)
			return
		}
	}
	b.row(name, 1, head...)
	if b.err != nil || len(head) == 0 {
		return
	}
	last, err := excelize.CoordinatesToCellName(len(head), 1)
	if err != nil {
		b.err = err
		return
	}
	if err := b.f.SetCellStyle(name, "A1", last, b.header); err != nil {
		b.err = fmt.Errorf("styling %s header: %w", name, err)
	}
}

func (b *builder) row(sheet string, n int, values ...any) {
	if b.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		b.err = err
		return
	}
	if err := b.f.SetSheetRow(sheet, cell, &values); err != nil {
		b.err = fmt.Errorf("writing %s row %d: %w", sheet, n, err)
	}
}

func (b *builder) summary(d Data) {
	b.sheet(SheetSummary, map[string]float64{"A": 28, "B": 14, "C": 14, "D": 14, "E": 10}, "Indicador", "Concluídos", "Em andamento", "Total", "%")
	r := 2
	line := func(label string, p progress.Progress) {
		b.row(SheetSummary, r, label, p.Completed, p.InProgress, p.Total, p.Percent)
		r++
	}
	line("Progresso global", d.Dashboard.Global)
	line("Currículo", d.Dashboard.Curriculum)
	line("Temas quentes", d.Dashboard.Hot)
	for _, a := range d.Areas {
		line(a.Name, d.Dashboard.Areas[a.ID])
	}
	r++
	b.row(SheetSummary, r, "Média dos simulados (%)", d.ExamAverage)
	r++
	if d.ExamName != "" || d.ExamDate != "" {
		b.row(SheetSummary, r, "Prova alvo", d.ExamName, d.ExamDate)
		r++
	}
	b.row(SheetSummary, r, "Gerado em", d.GeneratedAt.Format("2006-01-02 15:04"))
}

func (b *builder) areas(d Data) {
	b.sheet(SheetAreas, map[string]float64{"A": 24, "B": 24, "C": 40, "D": 16, "E": 40, "F": 40}, "Área", "Subárea", "Tema", "Status", "Subtemas", "Observações")
	r := 2
	for _, a := range d.Areas {
		for _, t := range a.Topics {
			b.row(SheetAreas, r, a.Name, t.SubArea, t.Name, statusLabels[t.Status], strings.Join(t.SubTopics, "\n"), t.Observations)
			r++
		}
	}
}

func (b *builder) hot(d Data) {
	b.sheet(SheetHot, map[string]float64{"A": 40, "B": 28, "C": 24, "D": 12, "E": 40}, "Tema", "Categoria", "Área", "Feito", "Observações")
	for i, h := range d.Hot {
		done := "Não"
		if h.Checked {
			done = "Sim"
		}
		b.row(SheetHot, i+2, h.Name, h.Category, h.Area, done, h.Observations)
	}
}

func (b *builder) schedule(d Data) {
	b.sheet(SheetSchedule, map[string]float64{"A": 10, "B": 40, "C": 28, "D": 24, "E": 16, "F": 40}, "Mês", "Tema", "Área", "Subárea", "Status", "Plano")
	r := 2
	for _, m := range d.Months {
		plan := m.Plan
		if len(m.Topics) == 0 {
			if plan != "" {
				b.row(SheetSchedule, r, m.Month, "", "", "", "", plan)
				r++
			}
			continue
		}
		for _, t := range m.Topics {
			b.row(SheetSchedule, r, m.Month, t.Name, t.AreaLabel, t.SubAreaLabel, statusLabels[t.Status], plan)
			plan = ""
			r++
		}
	}
}

func (b *builder) exams(d Data) {
	b.sheet(SheetExams, map[string]float64{"A": 32, "B": 12, "C": 12, "D": 12, "E": 8, "F": 40}, "Simulado", "Data", "Questões", "Acertos", "%", "Observações")
	for i, e := range d.Exams {
		b.row(SheetExams, i+2, e.Name, e.Date, e.TotalQuestions, e.CorrectAnswers, e.Percent(), e.Observations)
	}
}
