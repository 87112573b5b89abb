package migrate

import (
	"fmt"
	"io"

	"catalog-migrator/lib/tableutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// HasFailures is true when at least one item could not be migrated.
func (c RunCounters) HasFailures() bool {
	return c.Failed > 0
}

func RenderAttachReport(w io.Writer, result AttachResult) {
	fmt.Fprintf(w, "\n%s\nSUMMARY\n%s\n", rule, rule)

	t := tableutil.New(w)
	t.AppendHeader(table.Row{"Outcome", "Products"})
	t.AppendRows([]table.Row{
		{"✓ Successfully added images", result.Success},
		{"✗ Failed", result.Failed},
		{"⚠ Skipped (no image)", result.Skipped},
	})
	t.AppendFooter(table.Row{"Total", result.Total})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	t.Render()
}

func RenderMigrationReport(w io.Writer, result MigrationResult) {
	fmt.Fprintf(w, "\n%s\nMIGRATION COMPLETE\n%s\n", rule, rule)

	t := tableutil.New(w)
	t.AppendHeader(table.Row{"Item", "Result"})
	t.AppendRows([]table.Row{
		{"✓ Products created", fmt.Sprintf("%d/%d", result.Created, result.ProductsTotal)},
		{"✓ Product images uploaded", result.Success},
		{"✓ Gallery images uploaded", fmt.Sprintf("%d/%d", result.GalleryUploaded, result.GalleryTotal)},
		{"✗ Failed", result.Failed},
	})
	t.Render()

	if result.ImagesDir != "" {
		fmt.Fprintf(w, "\nImages saved to: %s\n", result.ImagesDir)
	}
}
