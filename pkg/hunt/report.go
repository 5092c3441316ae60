package hunt

// Entry is one unused export in a report.
type Entry struct {
	Category Category `json:"type" toon:"type"`
	Name     string   `json:"name" toon:"name"`
	File     string   `json:"file" toon:"file"`
	Line     uint32   `json:"line" toon:"line"`
}

// UsedEntry is a referenced export and the number of files referencing it.
type UsedEntry struct {
	Category   Category `json:"type" toon:"type"`
	Name       string   `json:"name" toon:"name"`
	File       string   `json:"file" toon:"file"`
	References uint64   `json:"references" toon:"references"`
}

// Summary holds aggregate counts for a hunt.
type Summary struct {
	TotalExports    int            `json:"total_exports" toon:"total_exports"`
	Unused          int            `json:"unused" toon:"unused"`
	ByCategory      map[string]int `json:"by_category" toon:"by_category"`
	FilesRegistered int            `json:"files_registered" toon:"files_registered"`
	FilesScanned    int            `json:"files_scanned" toon:"files_scanned"`
	FilesSkipped    int            `json:"files_skipped" toon:"files_skipped"`
	Collisions      int            `json:"collisions" toon:"collisions"`
}

// Report is the ordered list of unused exports.
type Report struct {
	Entries    []Entry     `json:"unused" toon:"unused"`
	Used       []UsedEntry `json:"used,omitempty" toon:"used,omitempty"`
	Collisions []Collision `json:"collisions,omitempty" toon:"collisions,omitempty"`
	Summary    Summary     `json:"summary" toon:"summary"`
}

// Clean reports whether no dead exports were found.
func (r *Report) Clean() bool {
	return r == nil || len(r.Entries) == 0
}

// Assemble builds a report from a registry after both passes. Entries appear
// in registry insertion order and only for categories in the selected set.
func Assemble(reg *Registry, categories CategorySet) *Report {
	report := &Report{
		Entries: []Entry{},
		Summary: Summary{ByCategory: make(map[string]int)},
	}
	if reg == nil {
		return report
	}

	for _, sym := range reg.Symbols() {
		if !categories.Has(sym.Category) {
			continue
		}
		report.Summary.TotalExports++
		if sym.Used {
			report.Used = append(report.Used, UsedEntry{
				Category:   sym.Category,
				Name:       sym.Name,
				File:       sym.File,
				References: sym.References(),
			})
			continue
		}
		report.Entries = append(report.Entries, Entry{
			Category: sym.Category,
			Name:     sym.Name,
			File:     sym.File,
			Line:     sym.Line,
		})
		report.Summary.ByCategory[string(sym.Category)]++
	}

	report.Collisions = reg.Collisions()
	report.Summary.Unused = len(report.Entries)
	report.Summary.Collisions = len(report.Collisions)
	return report
}

// EntriesByCategory groups entries by category, keeping report order within
// each group.
func (r *Report) EntriesByCategory() map[Category][]Entry {
	out := make(map[Category][]Entry)
	for _, e := range r.Entries {
		out[e.Category] = append(out[e.Category], e)
	}
	return out
}
