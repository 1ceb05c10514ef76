package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"brewhouse/internal/models"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

var ErrRowNotFound = errors.New("sale row not found")

const salesSheet = "Sales"

// SheetsService mirrors confirmed sales into the owner's Google
// spreadsheet. Row positions are cached by reservation id so upserts do
// not rescan the id column on every call.
type SheetsService struct {
	service       *sheets.Service
	spreadsheetID string
	rowCache      map[string]int
	cacheMu       sync.RWMutex
}

func NewSheetsService(credentialsFile, spreadsheetID string) (*SheetsService, error) {
	ctx := context.Background()

	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %v", err)
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %v", err)
	}

	client := config.Client(ctx)

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %v", err)
	}

	service := &SheetsService{
		service:       srv,
		spreadsheetID: spreadsheetID,
		rowCache:      make(map[string]int),
	}

	// Прогреваем кеш в фоне
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		service.WarmUpCache(ctx)
	}()

	return service, nil
}

// TestConnection проверяет доступ к таблице
func (s *SheetsService) TestConnection(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, salesSheet+"!A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("connection test failed: %v", err)
	}
	return nil
}

// GetServiceAccountEmail возвращает email сервисного аккаунта,
// чтобы владелец знал, кому выдать доступ к таблице
func (s *SheetsService) GetServiceAccountEmail(credentialsFile string) (string, error) {
	file, err := os.ReadFile(credentialsFile)
	if err != nil {
		return "", err
	}

	var creds struct {
		ClientEmail string `json:"client_email"`
	}
	if err := json.Unmarshal(file, &creds); err != nil {
		return "", err
	}
	return creds.ClientEmail, nil
}

// WarmUpCache populates the row index cache from the id column.
func (s *SheetsService) WarmUpCache(ctx context.Context) error {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, salesSheet+"!A:A").Context(ctx).Do()
	if err != nil {
		return err
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache = make(map[string]int)

	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if id, ok := row[0].(string); ok && id != "" {
			s.rowCache[id] = i + 1
		}
	}
	return nil
}

// AppendSale adds a confirmed sale as a new row.
func (s *SheetsService) AppendSale(ctx context.Context, r *models.Reservation, price float64) error {
	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{saleRowValues(r, price)},
	}

	_, err := s.service.Spreadsheets.Values.Append(s.spreadsheetID, salesSheet+"!A:A", valueRange).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

// UpsertSale updates the sale row for the reservation or appends one.
// Повторная синхронизация той же брони не плодит строки.
func (s *SheetsService) UpsertSale(ctx context.Context, r *models.Reservation, price float64) error {
	if r == nil {
		return fmt.Errorf("reservation is nil")
	}

	rowIdx, err := s.FindSaleRow(ctx, r.ID)
	if err != nil {
		if errors.Is(err, ErrRowNotFound) {
			return s.AppendSale(ctx, r, price)
		}
		return err
	}

	rangeData := fmt.Sprintf("%s!A%d:H%d", salesSheet, rowIdx, rowIdx)
	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{saleRowValues(r, price)},
	}

	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, rangeData, valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

// ReplaceSalesSheet rewrites the whole sheet from the given records.
func (s *SheetsService) ReplaceSalesSheet(ctx context.Context, sales []*models.Reservation, priceFor func(pkg string) float64) error {
	values := [][]interface{}{
		{"ID", "Guest", "Date", "Slot", "Package", "Payment", "Price", "Moved At"},
	}
	for _, r := range sales {
		values = append(values, saleRowValues(r, priceFor(r.Package)))
	}

	clearRange := salesSheet + "!A:Z"
	if _, err := s.service.Spreadsheets.Values.Clear(s.spreadsheetID, clearRange, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to clear sales sheet: %v", err)
	}

	rangeData := fmt.Sprintf("%s!A1:H%d", salesSheet, len(values))
	_, err := s.service.Spreadsheets.Values.Update(s.spreadsheetID, rangeData, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to update sales sheet: %v", err)
	}

	s.cacheMu.Lock()
	s.rowCache = make(map[string]int)
	for i, r := range sales {
		s.rowCache[r.ID] = i + 2
	}
	s.cacheMu.Unlock()

	return nil
}

// FindSaleRow locates the 1-based row index for a reservation id in
// column A, consulting the cache first.
func (s *SheetsService) FindSaleRow(ctx context.Context, id string) (int, error) {
	if id == "" {
		return 0, fmt.Errorf("reservation id is required")
	}

	if row, ok := s.getCachedRow(id); ok {
		return row, nil
	}

	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, salesSheet+"!A:A").Context(ctx).Do()
	if err != nil {
		return 0, err
	}

	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if v, ok := row[0].(string); ok && v == id {
			rowIdx := i + 1
			s.setCachedRow(id, rowIdx)
			return rowIdx, nil
		}
	}

	return 0, ErrRowNotFound
}

func (s *SheetsService) getCachedRow(id string) (int, bool) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	row, ok := s.rowCache[id]
	return row, ok
}

func (s *SheetsService) setCachedRow(id string, row int) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache[id] = row
}

// ClearCache clears the row index cache.
func (s *SheetsService) ClearCache() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache = make(map[string]int)
}

func saleRowValues(r *models.Reservation, price float64) []interface{} {
	movedAt := ""
	if r.MovedAt != nil {
		movedAt = r.MovedAt.Format("2006-01-02 15:04:05")
	}
	return []interface{}{
		r.ID,
		r.FullName(),
		r.Date.Format("2006-01-02"),
		r.TimeSlot,
		r.Package,
		r.PaymentMethod,
		price,
		movedAt,
	}
}
