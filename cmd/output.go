package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// newTable returns a table writer rendering to w.
func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

// money formats a dollar amount with thousands separators.
func money(v float64) string {
	return printer.Sprintf("$%.2f", v)
}

// number formats a count with thousands separators.
func number(n int64) string {
	return printer.Sprintf("%d", n)
}

// ordinal renders 1 as "1st", 22 as "22nd" and so on.
func ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

func fullName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func pageFooter(w io.Writer, page, pages int, total int64) {
	if pages == 0 {
		pages = 1
	}
	_, _ = fmt.Fprintf(w, "Page %d of %d (%s results)\n", page, pages, number(total))
}
