package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

func successf(format string, args ...any) {
	color.New(color.FgGreen).Fprintf(os.Stdout, "✓ "+format+"\n", args...)
}

func warnf(format string, args ...any) {
	color.New(color.FgYellow).Fprintf(os.Stderr, "⚠ "+format+"\n", args...)
}

func errorf(format string, args ...any) {
	color.New(color.FgRed).Fprintf(os.Stderr, "✗ "+format+"\n", args...)
}

// statusBadge renders a colored dot for an entity status.
func statusBadge(status string) string {
	switch status {
	case "active", "completed":
		return color.GreenString("●")
	case "inactive", "cancelled":
		return color.RedString("●")
	case "maintenance", "planned":
		return color.YellowString("●")
	default:
		return color.WhiteString("○")
	}
}

// renderTable writes a borderless left-aligned table.
func renderTable(w io.Writer, headers []string, rows [][]string) {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{ShowHeader: tw.Off},
			},
		}),
	)
	table.Header(headers)
	if err := table.Bulk(rows); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	if err := table.Render(); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}
