package curriculum

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Match is a single search hit.
type Match struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	AreaName string `json:"areaName"`
	IsHot    bool   `json:"isHot"`
}

// Fold lowercases s and strips combining marks, so "Pré-eclâmpsia" and
// "pre-eclampsia" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return cases.Fold().String(strings.TrimSpace(out))
}

// Search returns curriculum topics and hot topics whose name contains q,
// ignoring case and accents. Results are sorted by name in Brazilian
// Portuguese collation order. An empty query matches nothing.
func Search(areas []Area, hot []HotTopic, q string) []Match {
	needle := Fold(q)
	if needle == "" {
		return nil
	}

	var out []Match
	for _, a := range areas {
		for _, t := range a.Topics {
			if strings.Contains(Fold(t.Name), needle) {
				out = append(out, Match{ID: t.ID, Name: t.Name, AreaName: a.Name})
			}
		}
	}
	for _, h := range hot {
		if strings.Contains(Fold(h.Name), needle) {
			out = append(out, Match{ID: h.ID, Name: h.Name, AreaName: h.Area, IsHot: true})
		}
	}

	col := collate.New(language.BrazilianPortuguese, collate.IgnoreCase)
	sort.SliceStable(out, func(i, j int) bool {
		return col.CompareString(out[i].Name, out[j].Name) < 0
	})
	return out
}
