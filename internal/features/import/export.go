package import_feature

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	logSheetName      = "Import Log"
	templateSheetName = "Template"
	fieldsSheetName   = "Fields"
)

// ExportLogs renders the per-row results of a finished job as xlsx.
func ExportLogs(logs []ImportLogEntry) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", logSheetName); err != nil {
		return nil, err
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	columns := []string{"Row(s)", "Status", "Document", "Messages"}
	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(logSheetName, cell, col)
		f.SetCellStyle(logSheetName, cell, cell, headerStyle)
	}

	for rowIdx, entry := range logs {
		status := "Failed"
		if entry.Success {
			status = "Success"
		}
		messages := strings.Join(entry.Messages, "\n")
		if messages == "" && !entry.Success {
			messages = entry.Exception
		}

		values := []string{joinRows(entry.RowIndexes), status, entry.Docname, messages}
		for colIdx, v := range values {
			if v == "" {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(logSheetName, cell, v)
		}
	}

	f.SetColWidth(logSheetName, "A", "C", 18)
	f.SetColWidth(logSheetName, "D", "D", 60)

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write log workbook: %w", err)
	}
	return buffer.Bytes(), nil
}

// BuildTemplate renders a blank import file for an entity. Required labels
// are suffixed with "*"; the hidden second sheet lists the fieldnames.
func BuildTemplate(fields []TargetField) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", templateSheetName); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(fieldsSheetName); err != nil {
		return nil, err
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})

	for i, field := range fields {
		label := field.DisplayLabel()
		if field.Required {
			label += " *"
		}
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(templateSheetName, cell, label)
		f.SetCellStyle(templateSheetName, cell, cell, headerStyle)

		fieldCell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(fieldsSheetName, fieldCell, field.Fieldname)
	}

	if err := f.SetSheetVisible(fieldsSheetName, false); err != nil {
		return nil, err
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write template workbook: %w", err)
	}
	return buffer.Bytes(), nil
}

func joinRows(rows []int) string {
	parts := make([]string, len(rows))
	for i, r := range rows {
		parts[i] = strconv.Itoa(r)
	}
	return strings.Join(parts, ", ")
}
