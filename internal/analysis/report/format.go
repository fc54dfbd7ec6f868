package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
)

const (
	frame   = "==================\n"
	divider = "------\n"

	// maxLocationWidth is the display width location columns are cut to.
	maxLocationWidth = 60

	ansiBold  = "\x1b[1m"
	ansiRed   = "\x1b[1;31m"
	ansiReset = "\x1b[0m"
)

// counterSection describes how one counter table is printed.
type counterSection struct {
	title string
	noun  string
	why   string
	data  *CounterSection
}

// Format writes the text rendering of r to w. ANSI emphasis is used when w
// is a terminal and NO_COLOR is unset.
func (r *Report) Format(w io.Writer) error {
	var buf bytes.Buffer
	p := printer{buf: &buf, color: colorEnabled(w)}
	p.types(&r.Types)
	p.polymorphic(&r.Polymorphic)
	for _, sec := range []counterSection{
		{
			title: "LOADING UNDECLARED OR DELETED ARRAY ELEMENTS",
			noun:  "uninitialized array reads",
			data:  &r.UninitializedReads,
		},
		{
			title: "SWITCHING ARRAY TYPE",
			noun:  "array type switches",
			why:   "Storing a non-number into an array of numbers changes its element kind for good.",
			data:  &r.ArrayTypeSwitches,
		},
		{
			title: "MAKING INCONTIGUOUS ARRAY",
			noun:  "incontiguous array writes",
			why: "Arrays are stored either as fast linear elements or as a dictionary.\n" +
				"Writing past the end can flip an array to dictionary storage.",
			data: &r.IncontiguousWrites,
		},
		{
			title: "INITIALIZING OBJECT FIELD IN NON-CONSTRUCTOR",
			noun:  "fields added outside constructors",
			data:  &r.FieldsOutsideConstructor,
		},
	} {
		p.counters(sec)
	}
	fmt.Fprintf(&buf, "Total signatures generated: %d\n", r.Stats.SignaturesGenerated)
	fmt.Fprintf(&buf, "Total signature lookups: %d\n", r.Stats.SignatureLookups)
	if r.Stats.Unsignaturable > 0 {
		fmt.Fprintf(&buf, "Unsignaturable objects: %d\n", r.Stats.Unsignaturable)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// String returns the uncolored text rendering of r.
func (r *Report) String() string {
	var sb strings.Builder
	_ = r.Format(&sb)
	return sb.String()
}

func colorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type printer struct {
	buf   *bytes.Buffer
	color bool
}

func (p *printer) style(code, s string) string {
	if !p.color {
		return s
	}
	return code + s + ansiReset
}

func (p *printer) printf(format string, args ...any) {
	fmt.Fprintf(p.buf, format, args...)
}

func (p *printer) types(sec *TypeSection) {
	for i := range sec.Warnings {
		w := &sec.Warnings[i]
		p.printf(frame)
		if w.Field == "" {
			p.printf("%s UNDEFINED FIELD (%d)\n", p.style(ansiRed, "WARNING:"), w.ID)
			p.printf("undefined field found in %s:\n", w.Owner)
			for _, loc := range w.Locations {
				p.printf("        found at %s\n", loc)
			}
			continue
		}
		p.printf("%s INCONSISTENT TYPES (%d)\n", p.style(ansiRed, "WARNING:"), w.ID)
		p.printf("%s of %s has multiple types:\n", p.style(ansiBold, w.Field), w.Owner)
		for _, o := range w.Observed {
			p.printf("    %s\n", o.Type)
			for _, loc := range o.Locations {
				p.printf("        found at %s\n", loc)
			}
		}
		if len(w.Diff) > 0 {
			p.printf("\n    Type diff:\n")
			for _, d := range w.Diff {
				p.printf("        %s has types %s\n", d.Expression, strings.Join(d.Types, ","))
			}
		}
	}
	if sec.Total > 0 {
		p.printf(frame)
	}
	p.more(len(sec.Warnings), sec.Total)
	p.printf("Number of type warnings: %d\n", sec.Total)
}

func (p *printer) polymorphic(sec *PolymorphicSection) {
	p.printf(frame)
	p.printf("%s\n", p.style(ansiBold, "POLYMORPHIC STATEMENTS"))
	for _, site := range sec.Sites {
		p.printf(divider)
		p.printf("[location: %s] <- No. layouts: %d\n", site.Location, len(site.Layouts))
		for _, l := range site.Layouts {
			p.printf("count: %d -> layout: %s\n", l.Count, l.Layout)
			p.printf("\tTotal distinct obj: %d\n", l.DistinctObjects)
			width := columnWidth(l.Creations)
			for _, c := range l.Creations {
				p.printf("\tlocation: %s  occurrence: %d\n", fit(c.Location, width), c.Count)
			}
		}
	}
	p.more(len(sec.Sites), sec.Total)
	p.printf("Number of polymorphic statements spotted: %d\n", sec.Total)
}

func (p *printer) counters(sec counterSection) {
	p.printf(frame)
	p.printf("%s\n", p.style(ansiBold, sec.title))
	width := columnWidth(sec.data.Entries)
	for _, e := range sec.data.Entries {
		p.printf("  %s  No. usages: %d\n", fit(e.Location, width), e.Count)
	}
	p.more(len(sec.data.Entries), sec.data.Total)
	p.printf("Number of %s spotted: %d\n", sec.noun, sec.data.Total)
	if sec.why != "" && sec.data.Total > 0 {
		p.printf("Why: %s\n", sec.why)
	}
}

func (p *printer) more(shown, total int) {
	if total > shown {
		p.printf("... and %d more\n", total-shown)
	}
}

// columnWidth is the display width of the widest location, capped at
// maxLocationWidth.
func columnWidth(entries []Occurrence) int {
	width := 0
	for _, e := range entries {
		width = max(width, runewidth.StringWidth(e.Location))
	}
	return min(width, maxLocationWidth)
}

// fit truncates or pads s to exactly width display columns.
func fit(s string, width int) string {
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "...")
	}
	return runewidth.FillRight(s, width)
}
