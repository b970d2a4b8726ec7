// Package export renders request listings as spreadsheets.
package export

import (
	"context"
	"fmt"
	"io"

	"github.com/isf/servicedesk/internal/application/port"
	"github.com/isf/servicedesk/internal/domain/entity"
	"github.com/isf/servicedesk/internal/domain/workflow"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// SheetName is the worksheet holding the export
const SheetName = "Requests"

var headers = []string{"Request ID", "Requestor", "Badge", "Service", "Status", "Submitted", "Manager Comments"}

var columnWidths = map[string]float64{
	"A": 22, "B": 20, "C": 14, "D": 18, "E": 14, "F": 20, "G": 48,
}

// XLSXExporter implements port.RequestExporter with excelize
type XLSXExporter struct {
	logger *zap.Logger
}

// NewXLSXExporter creates a new spreadsheet exporter
func NewXLSXExporter(logger *zap.Logger) *XLSXExporter {
	return &XLSXExporter{logger: logger}
}

// Export writes one header row and one row per request to w
func (e *XLSXExporter) Export(ctx context.Context, w io.Writer, requests []*entity.Request) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	e.styleHeader(f)

	for i, req := range requests {
		if err := ctx.Err(); err != nil {
			return err
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", i+2, err)
		}
		row := []interface{}{
			req.ID,
			req.RequestorName,
			req.BadgeNumber,
			req.ServiceType,
			workflow.BadgeFor(req.Status).Label,
			formatSubmitted(req),
			req.ManagerComments,
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write request %s: %w", req.ID, err)
		}
	}

	for col, width := range columnWidths {
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			e.logger.Warn("Failed to set column width", zap.String("column", col), zap.Error(err))
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Info("Request workbook written", zap.Int("rows", len(requests)))
	return nil
}

func (e *XLSXExporter) styleHeader(f *excelize.File) {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDE4EE"}, Pattern: 1},
	})
	if err != nil {
		e.logger.Warn("Failed to create header style", zap.Error(err))
		return
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(SheetName, "A1", last, style); err != nil {
		e.logger.Warn("Failed to apply header style", zap.Error(err))
	}
}

func formatSubmitted(req *entity.Request) string {
	if req.SubmittedDate.IsZero() {
		return ""
	}
	return req.SubmittedDate.UTC().Format("2006-01-02 15:04")
}

var _ port.RequestExporter = (*XLSXExporter)(nil)
