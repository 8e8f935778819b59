// Package report exports the appointment history to an Excel workbook.
// The export always covers the full collection, soft-deleted records
// included, so the file doubles as an audit trail.
package report

import (
	"fmt"
	"io"

	"salao/internal/models"

	"github.com/xuri/excelize/v2"
)

var historyColumns = []string{
	"ID", "Cliente", "Telefone", "Serviço", "Preço (R$)",
	"Duração (min)", "Data", "Horário", "Status",
}

// WriteAppointments writes the workbook to w: one sheet with every record
// and a summary sheet with totals per status.
func WriteAppointments(appointments []models.Appointment, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Agendamentos"
	f.SetSheetName("Sheet1", sheet)

	if err := writeHeader(f, sheet, historyColumns); err != nil {
		return err
	}

	for i, a := range appointments {
		row := i + 2
		values := []interface{}{
			a.ID, a.ClientName, a.ClientPhone, a.ServiceName, a.Price,
			a.DurationMinutes, a.Date, a.TimeSlot, string(a.Status),
		}
		for col, val := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return fmt.Errorf("write row %d: %w", row, err)
			}
		}
	}

	if err := writeSummary(f, appointments); err != nil {
		return err
	}

	return f.Write(w)
}

func writeHeader(f *excelize.File, sheet string, columns []string) error {
	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return err
		}
	}

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, 1)
		endCell, _ := excelize.CoordinatesToCellName(len(columns), 1)
		_ = f.SetCellStyle(sheet, startCell, endCell, style)
	}
	return nil
}

func writeSummary(f *excelize.File, appointments []models.Appointment) error {
	const sheet = "Resumo"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}

	counts := map[models.Status]int{}
	var revenue float64
	for _, a := range appointments {
		counts[a.Status]++
		if a.Status == models.StatusCompleted {
			revenue += a.Price
		}
	}

	rows := [][]interface{}{
		{"Total", len(appointments)},
		{string(models.StatusScheduled), counts[models.StatusScheduled]},
		{string(models.StatusCompleted), counts[models.StatusCompleted]},
		{string(models.StatusRemoved), counts[models.StatusRemoved]},
		{"Receita concluída (R$)", revenue},
	}
	for i, row := range rows {
		for col, val := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return err
			}
		}
	}
	return nil
}
