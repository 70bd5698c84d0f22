// Package export renders recorded results as spreadsheet workbooks for
// teachers who want the data outside the dashboard.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/JaredJameson/TESTHUB/internal/models"
)

const resultsSheet = "Results"

var resultColumns = []string{
	"Timestamp",
	"First Name",
	"Last Name",
	"Email",
	"Student ID",
	"Attempt",
	"Score",
	"Total",
	"Percentage",
	"Grade",
	"Passed",
	"Time Spent (s)",
	"Auto Submitted",
	"Test Version",
}

// ResultsWorkbook renders one row per recorded attempt, newest ordering
// preserved from the caller.
func ResultsWorkbook(results []*models.TestResult) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", resultsSheet)

	for col, header := range resultColumns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to build header cell: %w", err)
		}
		if err := f.SetCellValue(resultsSheet, cell, header); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		last, _ := excelize.CoordinatesToCellName(len(resultColumns), 1)
		_ = f.SetCellStyle(resultsSheet, "A1", last, headerStyle)
	}

	for i, result := range results {
		rowNum := i + 2
		values := []interface{}{
			result.CreatedAt.Format("2006-01-02 15:04:05"),
			result.FirstName,
			result.LastName,
			result.Email,
			result.StudentID,
			result.AttemptNumber,
			result.CorrectCount,
			result.TotalQuestions,
			result.Percentage,
			result.Grade,
			result.Passed,
			result.TimeSpentSeconds,
			result.AutoSubmitted,
			result.TestVersion,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, rowNum)
			if err != nil {
				return nil, fmt.Errorf("failed to build cell: %w", err)
			}
			if err := f.SetCellValue(resultsSheet, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", rowNum, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf.Bytes(), nil
}
