package progress

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortDescriptors orders descriptors by area label, then name, using
// Brazilian Portuguese collation. Curriculum topics come before hot topics.
func SortDescriptors(ds []Descriptor) {
	col := collate.New(language.BrazilianPortuguese, collate.IgnoreCase)
	sort.SliceStable(ds, func(i, j int) bool {
		if ds[i].IsHot != ds[j].IsHot {
			return !ds[i].IsHot
		}
		if c := col.CompareString(ds[i].AreaLabel, ds[j].AreaLabel); c != 0 {
			return c < 0
		}
		return col.CompareString(ds[i].Name, ds[j].Name) < 0
	})
}
