package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/docker/go-units"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"

	"github.com/docker/itemd/pkg/item"
)

const maxTitleWidth = 60

type palette struct {
	bold    *color.Color
	muted   *color.Color
	success *color.Color
	failure *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		bold:    mk(color.Bold),
		muted:   mk(color.Faint),
		success: mk(color.FgGreen),
		failure: mk(color.FgRed, color.Bold),
	}
}

type Printer struct {
	out    io.Writer
	colors palette
}

// NewPrinter colors its output only when out is a terminal.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{
		out:    out,
		colors: newPalette(isTerminal(out)),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

func (p *Printer) Println(a ...any) {
	fmt.Fprintln(p.out, a...)
}

func (p *Printer) Printf(format string, a ...any) {
	fmt.Fprintf(p.out, format, a...)
}

// PrintOK prints a success message
func (p *Printer) PrintOK(msg string) {
	p.Println(p.colors.success.Sprint("✔ " + msg))
}

// PrintError prints an error message
func (p *Printer) PrintError(err error) {
	p.Println(p.colors.failure.Sprint("✖ " + err.Error()))
}

// PrintItems prints one line per item followed by a short tally.
func (p *Printer) PrintItems(items []item.Item) {
	if len(items) == 0 {
		p.Println(p.colors.muted.Sprint("no items"))
		return
	}

	for i, it := range items {
		p.Println(p.itemLine(i+1, it))
	}

	done, pending := item.Stats(items)
	p.Println(p.colors.muted.Sprintf("%d items, %d done, %d pending", len(items), done, pending))
}

func (p *Printer) itemLine(n int, it item.Item) string {
	box := "[ ]"
	title := runewidth.Truncate(it.Title, maxTitleWidth, "...")
	if it.IsComplete {
		box = p.colors.success.Sprint("[x]")
		title = p.colors.muted.Sprint(title)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%3d. %s %s", n, box, title)
	if it.Category != "" {
		fmt.Fprintf(&b, "  #%s", it.Category)
	}
	fmt.Fprintf(&b, "  %.2f  %s", it.Price, p.colors.muted.Sprint(it.ID))
	return b.String()
}

// PrintItem prints every field of a single item.
func (p *Printer) PrintItem(it item.Item) {
	complete := "no"
	if it.IsComplete {
		complete = "yes"
	}

	rows := [][2]string{
		{"id", it.ID},
		{"title", it.Title},
		{"price", fmt.Sprintf("%.2f", it.Price)},
		{"category", it.Category},
		{"description", it.Description},
		{"complete", complete},
	}
	for _, row := range rows {
		p.Printf("%s %s\n", p.colors.bold.Sprintf("%-12s", row[0]+":"), row[1])
	}
}

// PrintStoreInfo prints where the collection lives and how large it is.
func (p *Printer) PrintStoreInfo(location string, size int64) {
	p.Println(p.colors.muted.Sprintf("store: %s (%s)", location, units.HumanSize(float64(size))))
}
