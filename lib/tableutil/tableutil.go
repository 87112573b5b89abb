package tableutil

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// New returns a rounded table that renders to w.
func New(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}
