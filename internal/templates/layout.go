// Package templates renders the HTML pages. Every page is a templ.Component
// wrapped in Layout.
package templates

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"time"

	"github.com/a-h/templ"
)

// writer collects the first write error so page bodies can be written
// without checking each call.
type writer struct {
	w   io.Writer
	err error
}

func (w *writer) raw(s string) {
	if w.err == nil {
		_, w.err = io.WriteString(w.w, s)
	}
}

func (w *writer) text(s string) {
	w.raw(templ.EscapeString(s))
}

// f writes a formatted fragment. Every argument other than a number or a
// bool is rendered to text and escaped; the format itself is trusted markup.
func (w *writer) f(format string, args ...any) {
	for i, a := range args {
		if v, ok := a.(*string); ok {
			args[i] = templ.EscapeString(opt(v))
			continue
		}
		switch reflect.ValueOf(a).Kind() {
		case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
		default:
			args[i] = templ.EscapeString(fmt.Sprint(a))
		}
	}
	w.raw(fmt.Sprintf(format, args...))
}

func (w *writer) render(ctx context.Context, c templ.Component) {
	if w.err == nil {
		w.err = c.Render(ctx, w.w)
	}
}

func component(body func(ctx context.Context, w *writer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		body(ctx, w)
		return w.err
	})
}

var navLinks = []struct{ href, label string }{
	{"/", "Dashboard"},
	{"/datacenters", "Data centers"},
	{"/racks", "Racks"},
	{"/assets", "Assets"},
	{"/pools", "IP pools"},
	{"/customers", "Customers"},
	{"/projects", "Projects"},
	{"/changes", "Changes"},
	{"/monitoring", "Monitoring"},
}

// Layout wraps a page body in the document shell.
func Layout(title string, body templ.Component) templ.Component {
	return component(func(ctx context.Context, w *writer) {
		w.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		w.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		w.f(`<title>%s | DCIM</title>`, title)
		w.raw(`<script src="https://unpkg.com/htmx.org@1.9.12"></script></head><body><nav><ul>`)
		for _, l := range navLinks {
			w.f(`<li><a href="%s">%s</a></li>`, l.href, l.label)
		}
		w.f(`</ul></nav><main><h1>%s</h1>`, title)
		w.render(ctx, body)
		w.raw(`</main></body></html>`)
	})
}

// ErrorPage shows a failed request.
func ErrorPage(status int, message string) templ.Component {
	return Layout("Error", component(func(_ context.Context, w *writer) {
		w.f(`<p class="error"><strong>%d</strong> %s</p>`, status, message)
		w.raw(`<p><a href="javascript:history.back()">Back</a></p>`)
	}))
}

func opt(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optInt(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

// optNumber formats an optional number for an input value.
func optNumber(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func date(t time.Time) string {
	return t.Format("2006-01-02 15:04")
}

// bar renders a utilization percentage.
func bar(w *writer, pct int) {
	w.f(`<progress max="100" value="%d"></progress> %d%%`, pct, pct)
}

// option writes one select option.
func option(w *writer, value, label string, selected bool) {
	sel := ""
	if selected {
		sel = " selected"
	}
	w.f(`<option value="%s"`+sel+`>%s</option>`, value, label)
}
