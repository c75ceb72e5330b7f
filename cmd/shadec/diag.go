package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/gogpu/shade/ir"
)

// printer writes diagnostics as path:line:col: error: message.
type printer struct {
	w        io.Writer
	colorize bool
	location *color.Color
	label    *color.Color
	ok       *color.Color
}

func newPrinter(w io.Writer, colorize bool) *printer {
	p := &printer{
		w:        w,
		colorize: colorize,
		location: color.New(color.Bold),
		label:    color.New(color.FgRed, color.Bold),
		ok:       color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{p.location, p.label, p.ok} {
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// report prints err for path. A positioned error list is printed one
// entry per line, each prefixed with whatever context wrapped the list.
func (p *printer) report(path string, err error) {
	var list ir.ErrorList
	if !errors.As(err, &list) || len(list) == 0 {
		p.line(path, err.Error())
		return
	}
	prefix := strings.TrimSuffix(err.Error(), list.Error())
	for _, e := range list {
		loc := path
		if e.Pos.Valid() {
			loc = fmt.Sprintf("%s:%d:%d", path, e.Pos.Line, e.Pos.Column)
		}
		p.line(loc, prefix+e.Message)
	}
}

func (p *printer) line(loc, msg string) {
	fmt.Fprintf(p.w, "%s %s %s\n", p.location.Sprint(loc+":"), p.label.Sprint("error:"), msg)
}

// wrote confirms one output file.
func (p *printer) wrote(path string, size int) {
	fmt.Fprintf(p.w, "%s %s (%d bytes)\n", p.ok.Sprint("wrote"), path, size)
}
