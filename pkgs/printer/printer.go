// Package printer writes styled, human-readable output for the CLI.
package printer

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/hay-kot/logdest/pkgs/styles"
)

type Printer struct {
	writer io.Writer
}

func New(w io.Writer) *Printer {
	return &Printer{writer: w}
}

// Ctx returns a printer using the writer stored on ctx, falling back to the
// receiver's writer.
func (p *Printer) Ctx(ctx context.Context) *Printer {
	if w, ok := GetWriter(ctx); ok {
		return New(w)
	}

	return p
}

func (p *Printer) write(s string) {
	_, _ = io.WriteString(p.writer, s)
}

func (p *Printer) FatalError(err error) {
	p.LineBreak()
	p.write(styles.ErrorBox("Error", err.Error()))
	p.LineBreak()
}

func (p *Printer) Title(title string) {
	p.write(styles.Bold(styles.Underline(title)) + "\n")
}

func (p *Printer) LineBreak() {
	p.write("\n")
}

type KeyValue struct {
	Key   string
	Value string
}

// KeyValues prints an aligned list of key/value pairs under title.
func (p *Printer) KeyValues(title string, kvs []KeyValue) {
	p.Title(title)

	width := 0
	for _, kv := range kvs {
		width = max(width, len(kv.Key))
	}

	for _, kv := range kvs {
		pad := strings.Repeat(" ", width-len(kv.Key))
		p.write(fmt.Sprintf("  %s%s  %s\n", styles.Key(kv.Key), pad, kv.Value))
	}
}

type StatusListItem struct {
	Ok     bool
	Status string
	Detail string
}

// StatusList prints items prefixed with a check or cross.
func (p *Printer) StatusList(title string, items []StatusListItem) {
	p.Title(title)

	for _, item := range items {
		icon := styles.Success(styles.Check)
		if !item.Ok {
			icon = styles.Error(" " + styles.Cross)
		}

		line := fmt.Sprintf("%s %s", icon, item.Status)
		if item.Detail != "" {
			line += styles.Subtle(item.Detail)
		}
		p.write(line + "\n")
	}
}
