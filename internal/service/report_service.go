package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"brewhouse/internal/config"
	"brewhouse/internal/domain"
	"brewhouse/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// ReportService builds the sales XLSX reports handed to the owner.
type ReportService struct {
	store      domain.Store
	booking    config.BookingConfig
	exportPath string
	logger     *zerolog.Logger
}

func NewReportService(store domain.Store, booking config.BookingConfig, exportPath string, logger *zerolog.Logger) *ReportService {
	return &ReportService{
		store:      store,
		booking:    booking,
		exportPath: exportPath,
		logger:     logger,
	}
}

// ExportSales writes confirmed sales for the period into an XLSX file and
// returns its path. One row per sale plus per-day subtotals.
func (s *ReportService) ExportSales(ctx context.Context, from, to time.Time) (string, error) {
	if err := os.MkdirAll(s.exportPath, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	byDay, err := s.store.SalesByDay(ctx, from, to)
	if err != nil {
		return "", fmt.Errorf("error getting sales: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Продажи"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Период: %s - %s",
		from.Format("02.01.2006"), to.Format("02.01.2006")))
	_ = f.MergeCell(sheetName, "A1", "G1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	headers := []string{"ID", "Гость", "Дата", "Слот", "Пакет", "Оплата", "Сумма"}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)

	subtotalStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})

	row := 3
	var total float64
	for _, day := range days {
		var dayTotal float64
		for _, r := range byDay[day] {
			price, known := s.booking.PackagePrice(r.Package)
			if !known {
				s.logger.Warn().Str("package", r.Package).Str("reservation_id", r.ID).Msg("unknown package in sales report")
			}
			dayTotal += price

			_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), r.ID)
			_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), r.FullName())
			_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), r.Date.Format("02.01.2006"))
			_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), r.TimeSlot)
			_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), r.Package)
			_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), r.PaymentMethod)
			_ = f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), models.FormatPrice(price))
			row++
		}

		_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("Итого за %s", day))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), models.FormatPrice(dayTotal))
		_ = f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("G%d", row), subtotalStyle)
		total += dayTotal
		row++
	}

	_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), "Итого за период")
	_ = f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), models.FormatPrice(total))
	_ = f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("G%d", row), subtotalStyle)

	_ = f.SetColWidth(sheetName, "A", "A", 12)
	_ = f.SetColWidth(sheetName, "B", "B", 25)
	_ = f.SetColWidth(sheetName, "C", "D", 20)
	_ = f.SetColWidth(sheetName, "E", "G", 15)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("sales_%s_to_%s.xlsx",
		from.Format("2006-01-02"),
		to.Format("2006-01-02"))
	filePath := filepath.Join(s.exportPath, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	s.logger.Info().Str("file_path", filePath).Msg("sales report created")
	return filePath, nil
}

// ResyncSalesSheet rebuilds the external sales sheet from history for the
// given period. Восстановление после ручных правок таблицы или сбоев
// инкрементальной синхронизации.
func (s *ReportService) ResyncSalesSheet(ctx context.Context, sheets domain.SheetsWriter, from, to time.Time) (int, error) {
	sales, err := s.store.ConfirmedSales(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("error getting sales: %v", err)
	}

	priceFor := func(pkg string) float64 {
		price, known := s.booking.PackagePrice(pkg)
		if !known {
			s.logger.Warn().Str("package", pkg).Msg("unknown package, zero price in resync")
		}
		return price
	}

	if err := sheets.ReplaceSalesSheet(ctx, sales, priceFor); err != nil {
		return 0, fmt.Errorf("error replacing sales sheet: %v", err)
	}

	s.logger.Info().Int("rows", len(sales)).Msg("sales sheet rebuilt")
	return len(sales), nil
}
