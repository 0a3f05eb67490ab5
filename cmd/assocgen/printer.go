package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/goliatone/go-assoc"
)

// printer renders diagnostics the way compilers do:
// file:line:col: error: message [ID].
type printer struct {
	mu       sync.Mutex
	w        io.Writer
	count    int
	position func(string, ...any) string
	severity func(string, ...any) string
	id       func(string, ...any) string
}

func newPrinter(w io.Writer, colored bool) *printer {
	p := &printer{
		w:        w,
		position: fmt.Sprintf,
		severity: fmt.Sprintf,
		id:       fmt.Sprintf,
	}
	if colored {
		bold := color.New(color.Bold)
		bold.EnableColor()
		red := color.New(color.FgRed, color.Bold)
		red.EnableColor()
		grey := color.New(color.FgHiBlack)
		grey.EnableColor()
		p.position = bold.Sprintf
		p.severity = red.Sprintf
		p.id = grey.Sprintf
	}
	return p
}

// Report implements assoc.Reporter.
func (p *printer) Report(d assoc.Diagnostic) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.count++

	where := "assoc"
	if d.Pos.IsValid() {
		where = d.Pos.String()
	}
	subject := ""
	if d.Owner != "" || d.Property != "" {
		subject = fmt.Sprintf("%s.%s: ", d.Owner, d.Property)
	}
	fmt.Fprintf(p.w, "%s: %s: %s%s %s\n",
		p.position("%s", where),
		p.severity("%s", d.Severity()),
		subject,
		d.Message(),
		p.id("[%s]", d.ID()),
	)
}

// Count returns how many diagnostics were printed.
func (p *printer) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}
