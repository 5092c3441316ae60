package output

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/panbanda/deadhunt/pkg/hunt"
)

// CleanMessage is printed when no unused export was found.
const CleanMessage = "No dead code found! Your codebase is lean."

// DynamicNote reminds readers of what name matching cannot see.
const DynamicNote = "Note: double check dynamic imports and string-based references before deleting."

// DeadReport renders a hunt report.
type DeadReport struct {
	Report *hunt.Report
	// Root, when set, shortens file paths to be relative to it.
	Root string
	// ShowUsed adds the table of referenced exports.
	ShowUsed bool
}

// NewDeadReport wraps a report for rendering.
func NewDeadReport(r *hunt.Report, root string, showUsed bool) *DeadReport {
	return &DeadReport{Report: r, Root: root, ShowUsed: showUsed}
}

func (d *DeadReport) report() *hunt.Report {
	if d.Report == nil {
		return hunt.Assemble(nil, hunt.AllCategorySet())
	}
	return d.Report
}

// RenderData returns the report with paths shortened, omitting the used
// list unless requested.
func (d *DeadReport) RenderData() any {
	src := d.report()
	out := *src
	out.Entries = make([]hunt.Entry, len(src.Entries))
	for i, e := range src.Entries {
		e.File = d.rel(e.File)
		out.Entries[i] = e
	}
	out.Used = nil
	if d.ShowUsed {
		for _, u := range src.Used {
			u.File = d.rel(u.File)
			out.Used = append(out.Used, u)
		}
	}
	return &out
}

func (d *DeadReport) RenderText(w io.Writer, colored bool) error {
	r := d.report()

	if d.ShowUsed && len(r.Used) > 0 {
		if err := d.usedTable(colored).RenderText(w, colored); err != nil {
			return err
		}
	}

	if r.Clean() {
		fmt.Fprintln(w)
		heading(w, colored, CleanMessage, color.FgGreen)
	} else {
		fmt.Fprintln(w)
		heading(w, colored, fmt.Sprintf("Found %d unused %s:", len(r.Entries), plural(len(r.Entries), "item", "items")), color.FgRed, color.Bold)
		fmt.Fprintln(w)
		if err := d.deadTable(colored).RenderText(w, colored); err != nil {
			return err
		}
	}

	heading(w, colored, d.summaryLine(), color.Faint)
	if len(r.Collisions) > 0 {
		msg := fmt.Sprintf("%d export %s shared by several files; only the last definition is tracked.",
			len(r.Collisions), plural(len(r.Collisions), "name is", "names are"))
		heading(w, colored, msg, color.FgYellow)
	}
	if !r.Clean() {
		heading(w, colored, DynamicNote, color.Faint)
	}
	return nil
}

func (d *DeadReport) RenderMarkdown(w io.Writer) error {
	r := d.report()
	fmt.Fprintf(w, "# Dead exports\n\n")

	if r.Clean() {
		fmt.Fprintf(w, "%s\n\n", CleanMessage)
	} else {
		if err := d.deadTable(false).RenderMarkdown(w); err != nil {
			return err
		}
	}
	if d.ShowUsed && len(r.Used) > 0 {
		if err := d.usedTable(false).RenderMarkdown(w); err != nil {
			return err
		}
	}

	fmt.Fprintf(w, "%s\n", d.summaryLine())
	if !r.Clean() {
		fmt.Fprintf(w, "\n> %s\n", DynamicNote)
	}
	return nil
}

func (d *DeadReport) deadTable(colored bool) *Table {
	r := d.report()
	rows := make([][]string, 0, len(r.Entries))
	for _, e := range r.Entries {
		loc := fmt.Sprintf("%s:%d", d.rel(e.File), e.Line)
		if colored {
			loc = color.New(color.Faint).Sprint(loc)
		}
		rows = append(rows, []string{e.Category.String(), e.Name, loc})
	}
	return NewTable("", []string{"Type", "Name", "Source File"}, rows, nil, nil)
}

func (d *DeadReport) usedTable(colored bool) *Table {
	r := d.report()
	rows := make([][]string, 0, len(r.Used))
	for _, u := range r.Used {
		count := fmt.Sprintf("%d", u.References)
		if colored {
			count = color.GreenString(count)
		}
		rows = append(rows, []string{u.Category.String(), u.Name, d.rel(u.File), count})
	}
	return NewTable("Used Exports", []string{"Type", "Name", "Source File", "Files"}, rows, nil, nil)
}

func (d *DeadReport) summaryLine() string {
	s := d.report().Summary
	var parts []string
	for _, c := range hunt.AllCategories {
		if n := s.ByCategory[c.String()]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, strings.ToLower(c.String())))
		}
	}
	line := fmt.Sprintf("Summary: %d of %d exports unused", s.Unused, s.TotalExports)
	if len(parts) > 0 {
		line += " (" + strings.Join(parts, ", ") + ")"
	}
	line += fmt.Sprintf("; %d files registered, %d scanned for usages", s.FilesRegistered, s.FilesScanned)
	if s.FilesSkipped > 0 {
		line += fmt.Sprintf(", %d skipped", s.FilesSkipped)
	}
	return line
}

func (d *DeadReport) rel(path string) string {
	if d.Root == "" {
		return path
	}
	rel, err := filepath.Rel(d.Root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
