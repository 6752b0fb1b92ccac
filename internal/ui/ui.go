package ui

import (
	"fmt"
	"io"
	"os"
)

// ANSI color codes.
const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	yellow = "\033[33m"
	green  = "\033[32m"
	red    = "\033[31m"
	cyan   = "\033[36m"
)

// Printer writes per-package progress lines and aggregate summaries to
// stderr. All human-facing output of the tool flows through here so stages
// stay silent under test.
type Printer struct {
	W io.Writer
}

func New() *Printer {
	return &Printer{W: os.Stderr}
}

func (p *Printer) w() io.Writer {
	if p.W != nil {
		return p.W
	}
	return os.Stderr
}

// Header opens a command's output, naming the config source in dim text.
func (p *Printer) Header(title, configSource string) {
	fmt.Fprintf(p.w(), bold+cyan+"▶ %s"+reset+dim+"  (config: %s)"+reset+"\n", title, configSource)
}

// Package announces which package is being processed.
func (p *Printer) Package(name string) {
	fmt.Fprintf(p.w(), cyan+"◆ %s"+reset+"\n", name)
}

// Done prints a per-package success line.
func (p *Printer) Done(pkg, msg string) {
	fmt.Fprintf(p.w(), green+"  ✓ %s"+reset+" %s\n", pkg, msg)
}

// Skip prints a per-package skip line with its reason.
func (p *Printer) Skip(pkg, reason string) {
	fmt.Fprintf(p.w(), dim+"  ⏩ %s: %s"+reset+"\n", pkg, reason)
}

// Fail prints a per-package failure line.
func (p *Printer) Fail(pkg string, err error) {
	fmt.Fprintf(p.w(), red+"  ✗ %s"+reset+": %v\n", pkg, err)
}

// Warn prints a per-package warning, used for inconsistent-state reports.
func (p *Printer) Warn(pkg, msg string) {
	fmt.Fprintf(p.w(), yellow+"  ⚠ %s"+reset+": %s\n", pkg, msg)
}

// Info prints a dim informational line.
func (p *Printer) Info(msg string) {
	fmt.Fprintf(p.w(), dim+"  %s"+reset+"\n", msg)
}

// Error prints a command-level error.
func (p *Printer) Error(msg string) {
	fmt.Fprintf(p.w(), red+bold+"error: "+reset+"%s\n", msg)
}

// Summary closes a command's output with the aggregate counts and one line
// per package outcome.
func (p *Printer) Summary(lines []string, processed, skipped, failed int) {
	fmt.Fprintln(p.w())
	for _, line := range lines {
		fmt.Fprintf(p.w(), "  %s\n", line)
	}
	color := green
	if failed > 0 {
		color = red
	}
	fmt.Fprintf(p.w(), color+bold+"done"+reset+": %d processed, %d skipped, %d failed\n",
		processed, skipped, failed)
}
