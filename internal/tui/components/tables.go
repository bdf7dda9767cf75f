package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"

	"github.com/allbin/go-ultiprint/gcode"
	"github.com/allbin/go-ultiprint/internal/tui/colors"
	"github.com/allbin/go-ultiprint/serial"
)

const (
	colMnemonic = "mnemonic"
	colCount    = "count"
	colShare    = "share"

	colPath    = "path"
	colType    = "type"
	colID      = "id"
	colSerial  = "serial"
	colProduct = "product"
)

func styledTable(cols []table.Column, rows []table.Row) table.Model {
	return table.New(cols).
		WithRows(rows).
		BorderRounded().
		HeaderStyle(lipgloss.NewStyle().Bold(true).Foreground(colors.Mauve)).
		WithBaseStyle(lipgloss.NewStyle().Foreground(colors.Text).BorderForeground(colors.Surface2).Align(lipgloss.Left))
}

// LegacyTable lists the commands that were sent as text, most frequent
// first.
func LegacyTable(stats *gcode.Stats) string {
	legacy := stats.Legacy()
	total := stats.Commands.Load()

	rows := make([]table.Row, 0, len(legacy))
	for _, mc := range legacy {
		share := 0.0
		if total > 0 {
			share = float64(mc.Count) * 100 / float64(total)
		}
		rows = append(rows, table.NewRow(table.RowData{
			colMnemonic: mc.Mnemonic,
			colCount:    mc.Count,
			colShare:    fmt.Sprintf("%.1f%%", share),
		}))
	}

	return styledTable([]table.Column{
		table.NewColumn(colMnemonic, "Text command", 14),
		table.NewColumn(colCount, "Count", 8),
		table.NewColumn(colShare, "Share", 8),
	}, rows).View()
}

// PortTable lists serial ports with their USB identity.
func PortTable(ports []*serial.PortInfo) string {
	rows := make([]table.Row, 0, len(ports))
	for _, p := range ports {
		id, serialNo := "-", "-"
		if p.IsUSB() {
			id = p.VendorID + ":" + p.ProductID
			if p.SerialNumber != "" {
				serialNo = p.SerialNumber
			}
		}
		rows = append(rows, table.NewRow(table.RowData{
			colPath:    p.Path,
			colType:    PortType(p.Name),
			colID:      id,
			colSerial:  serialNo,
			colProduct: p.Description,
		}))
	}

	return styledTable([]table.Column{
		table.NewColumn(colPath, "Port", 16),
		table.NewColumn(colType, "Type", 16),
		table.NewColumn(colID, "VID:PID", 11),
		table.NewColumn(colSerial, "Serial", 22),
		table.NewColumn(colProduct, "Product", 28),
	}, rows).View()
}
