package httpapi

import (
	"bytes"
	"fmt"
	"time"

	"weblidercontrol/internal/domain"

	"github.com/xuri/excelize/v2"
)

// ComplianceReportSheet 报表工作表名
const ComplianceReportSheet = "Compliance"

// ComplianceReportHeader 报表表头
var ComplianceReportHeader = []string{
	"Record ID",
	"Round",
	"Client",
	"Site",
	"Scheduled Time",
	"Window Start",
	"Window End",
	"Status",
	"Checkpoints Scanned",
	"Automatic",
	"Cadence",
}

var complianceColumnWidths = []float64{32, 24, 18, 18, 14, 18, 18, 14, 20, 12, 14}

// GenerateComplianceReport 生成某天合规记录的 xlsx；时间按设施本地时区显示
func GenerateComplianceReport(records []*domain.ComplianceRecord, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.UTC
	}
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(ComplianceReportSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range ComplianceReportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(ComplianceReportSheet, cell, header); err != nil {
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(ComplianceReportSheet, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
		colName, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(ComplianceReportSheet, colName, colName, complianceColumnWidths[col]); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, rec := range records {
		row := i + 2
		values := []any{
			rec.ID,
			rec.RoundName,
			rec.Client,
			rec.Site,
			rec.ScheduledTimeLabel,
			formatLocal(rec.WindowStart, loc),
			formatLocal(rec.WindowEnd, loc),
			string(rec.Status),
			fmt.Sprintf("%d/%d", scannedCount(rec), len(rec.CheckpointResults)),
			yesNo(rec.GeneratedAutomatically),
			rec.Cadence,
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(ComplianceReportSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", row, err)
		}
	}

	if err := f.SetPanes(ComplianceReportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write excel: %w", err)
	}
	return buf.Bytes(), nil
}

func formatLocal(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format("2006-01-02 15:04")
}

func scannedCount(rec *domain.ComplianceRecord) int {
	n := 0
	for _, cp := range rec.CheckpointResults {
		if cp.Scanned {
			n++
		}
	}
	return n
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
