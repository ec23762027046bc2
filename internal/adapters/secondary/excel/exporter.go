package excel

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/lorrc/chamados/internal/core/domain"
	"github.com/lorrc/chamados/internal/core/ports"
)

// ExportSheet is the name of the sheet written by Exporter.
const ExportSheet = "chamados"

const exportTimeLayout = "2006-01-02 15:04:05"

var exportHeaders = []interface{}{
	"id", "regional", "loja", "lider", "motivo",
	"abertura", "fechamento", "duracao", "status", "finalizado_por",
}

var exportWidths = []struct {
	from, to string
	width    float64
}{
	{"B", "E", 25},
	{"F", "G", 20},
	{"J", "J", 20},
}

// Exporter writes ticket listings as .xlsx workbooks.
type Exporter struct{}

var _ ports.TicketExporter = (*Exporter)(nil)

func NewExporter() *Exporter {
	return &Exporter{}
}

// Export writes one header row and one row per ticket to w.
func (e *Exporter) Export(w io.Writer, tickets []*domain.Ticket) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ExportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(ExportSheet, "A1", &exportHeaders); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetCellStyle(ExportSheet, "A1", "J1", style); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, t := range tickets {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := ticketRow(t)
		if err := f.SetSheetRow(ExportSheet, cell, &row); err != nil {
			return fmt.Errorf("write ticket %d: %w", t.ID, err)
		}
	}

	for _, w := range exportWidths {
		if err := f.SetColWidth(ExportSheet, w.from, w.to, w.width); err != nil {
			return fmt.Errorf("set width of %s:%s: %w", w.from, w.to, err)
		}
	}

	return f.Write(w)
}

func ticketRow(t *domain.Ticket) []interface{} {
	var closedAt, closedBy string
	if t.ClosedAt != nil {
		closedAt = t.ClosedAt.Format(exportTimeLayout)
	}
	if t.ClosedBy != nil {
		closedBy = *t.ClosedBy
	}
	return []interface{}{
		t.ID, t.Regional, t.Store, t.Leader, t.Reason,
		t.OpenedAt.Format(exportTimeLayout), closedAt, t.Duration(), string(t.Status), closedBy,
	}
}
