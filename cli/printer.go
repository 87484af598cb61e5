package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	metaColor   = color.New(color.FgYellow)
	answerColor = color.New(color.FgCyan)
	errorColor  = color.New(color.FgRed)
	promptColor = color.New(color.FgGreen, color.Bold)
)

// printer turns full-text updates into incremental terminal output.
type printer struct {
	out     io.Writer
	printed string
}

func newPrinter(out io.Writer) *printer {
	return &printer{out: out}
}

func (p *printer) Meta(title, sessionID string, isGuest bool) {
	mode := "user"
	if isGuest {
		mode = "guest"
	}
	metaColor.Fprintf(p.out, "[%s] %s (%s)\n", mode, title, sessionID)
}

// Update prints the part of content not printed yet. Each update carries the whole
// answer so far.
func (p *printer) Update(content string) {
	if strings.HasPrefix(content, p.printed) {
		answerColor.Fprint(p.out, content[len(p.printed):])
	} else {
		answerColor.Fprint(p.out, "\n"+content)
	}
	p.printed = content
}

func (p *printer) End() {
	if p.printed != "" {
		fmt.Fprintln(p.out)
	}
	p.printed = ""
}

func (p *printer) Error(err error) {
	errorColor.Fprintf(p.out, "error: %v\n", err)
}
