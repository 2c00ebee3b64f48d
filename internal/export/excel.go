package export

import (
	"fmt"
	"time"

	"github.com/chenyy/work-report/internal/report"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const sheetName = "Report Records"

// recordHeader is the fixed column layout of the export
var recordHeader = []string{
	"Record ID", "Work Order", "Task ID", "Amount", "QC Status", "Reported At",
}

// Exporter renders report records into an Excel workbook
type Exporter struct {
	logger *zap.Logger
}

// NewExporter creates a new record exporter
func NewExporter(logger *zap.Logger) *Exporter {
	return &Exporter{logger: logger}
}

// RecordsToExcel writes one row per record under a header row and returns
// the workbook bytes.
func (e *Exporter) RecordsToExcel(records []report.Record) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		e.logger.Debug("Failed to remove default sheet", zap.Error(err))
	}

	for col, title := range recordHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to compute header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, title); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, rec := range records {
		amount := ""
		if rec.ReportAmount != nil {
			amount = rec.ReportAmount.Display
			if amount == "" {
				amount = fmt.Sprintf("%g", rec.ReportAmount.Amount)
			}
		}
		reportedAt := ""
		if rec.ReportTime > 0 {
			reportedAt = time.UnixMilli(rec.ReportTime).Format("2006-01-02 15:04:05")
		}

		row := []interface{}{
			rec.RecordID,
			rec.WorkOrderCode,
			rec.TaskID,
			amount,
			qcStatusLabel(rec.QCStatus),
			reportedAt,
		}
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, fmt.Errorf("failed to compute cell: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write record row: %w", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}

	e.logger.Info("Exported report records", zap.Int("count", len(records)))
	return buf.Bytes(), nil
}

// qcStatusLabel maps quality status codes onto readable labels
func qcStatusLabel(status int) string {
	switch status {
	case report.QCStatusQualified:
		return "qualified"
	case report.QCStatusConcession:
		return "concession"
	case report.QCStatusPendingCheck:
		return "pending check"
	case report.QCStatusDisqualified:
		return "disqualified"
	default:
		return fmt.Sprintf("status %d", status)
	}
}
