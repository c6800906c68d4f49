// Package ui provides colored console output for command results.
package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	// Colors
	Red    = color.New(color.FgRed)
	Green  = color.New(color.FgGreen)
	Yellow = color.New(color.FgYellow)
	Blue   = color.New(color.FgBlue)
	Cyan   = color.New(color.FgCyan)
	Bold   = color.New(color.Bold)
)

// Printer writes themed messages to one writer.
type Printer struct {
	w io.Writer
}

// New returns a Printer writing to w.
func New(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Writer returns the underlying writer.
func (p *Printer) Writer() io.Writer { return p.w }

// Success prints a green success message with checkmark.
func (p *Printer) Success(format string, args ...any) {
	Green.Fprintf(p.w, "✓ "+format+"\n", args...)
}

// Error prints a red error message with X.
func (p *Printer) Error(format string, args ...any) {
	Red.Fprintf(p.w, "✗ "+format+"\n", args...)
}

// Warning prints a yellow warning message.
func (p *Printer) Warning(format string, args ...any) {
	Yellow.Fprintf(p.w, "⚠ "+format+"\n", args...)
}

// Info prints a blue info message.
func (p *Printer) Info(format string, args ...any) {
	Blue.Fprintf(p.w, format+"\n", args...)
}

// Header prints a bold header.
func (p *Printer) Header(format string, args ...any) {
	Bold.Fprintf(p.w, format+"\n", args...)
}

// Change reports an attribute update on a state entry.
func (p *Printer) Change(tag, attr, from, to string) {
	fmt.Fprint(p.w, "Updated state[")
	Cyan.Fprint(p.w, tag)
	fmt.Fprintf(p.w, "].%s from ", attr)
	Yellow.Fprint(p.w, quoteEmpty(from))
	fmt.Fprint(p.w, " => ")
	Green.Fprintln(p.w, quoteEmpty(to))
}

// Check prints a pass or fail line for a diagnostic step.
func (p *Printer) Check(name string, err error) {
	if err == nil {
		p.Success("%s", name)
		return
	}
	p.Error("%s: %v", name, err)
}

func quoteEmpty(s string) string {
	if s == "" {
		return `""`
	}
	return s
}
