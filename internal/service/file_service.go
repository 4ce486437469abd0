package service

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/straye-as/blind-quote/internal/domain"
)

// File extensions understood by the file service
const (
	ExtJSON = "json"
	ExtCSV  = "csv"
	ExtXLSX = "xlsx"
)

// Content types of exported files
const (
	ContentTypeJSON = "application/json"
	ContentTypeCSV  = "text/csv;charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

const (
	quoteSheet = "Quote"
	itemsSheet = "Items"
)

// itemColumns is the column layout shared by the CSV export and the items sheet
var itemColumns = []string{
	"#", "Width", "Height", "Type", "Price",
	"Location", "F-Name", "F-Color", "Over", "O/I", "L/R",
	"Dual", "Chain", "Winder", "Motor", "IsLF",
}

// LoadResult reports the outcome of loading a file. Data is nil on failure.
type LoadResult struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    *domain.QuoteData `json:"data,omitempty"`
}

// FileService converts quotes to and from JSON, CSV and XLSX files
type FileService struct {
	migration *MigrationService
	now       func() time.Time
	logger    *zap.Logger
}

// NewFileService creates a new FileService instance
func NewFileService(migration *MigrationService, logger *zap.Logger) *FileService {
	return &FileService{
		migration: migration,
		now:       time.Now,
		logger:    logger,
	}
}

// SetClock replaces the clock used for file names
func (s *FileService) SetClock(now func() time.Time) {
	s.now = now
}

// FileName returns a timestamped file name such as quote-202601021504.json
func (s *FileService) FileName(ext string) string {
	return fmt.Sprintf("quote-%s.%s", s.now().Format("200601021504"), ext)
}

// ContentType returns the content type of an export extension
func ContentType(ext string) string {
	switch ext {
	case ExtJSON:
		return ContentTypeJSON
	case ExtCSV:
		return ContentTypeCSV
	case ExtXLSX:
		return ContentTypeXLSX
	}
	return "application/octet-stream"
}

// ============================================================================
// Export
// ============================================================================

// ExportJSON serialises the quote document with two-space indentation
func (s *FileService) ExportJSON(q *domain.QuoteData) ([]byte, error) {
	data, err := json.MarshalIndent(q, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode quote: %w", err)
	}
	return data, nil
}

// ExportCSV writes one row per item that has a width or height, followed by
// a total row when the quote has been summed
func (s *FileService) ExportCSV(q *domain.QuoteData) ([]byte, error) {
	pd, ok := q.CurrentProductData()
	if !ok {
		return []byte{}, nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(itemColumns); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for i, item := range pd.Items {
		if !item.HasDimension() {
			continue
		}
		if err := w.Write(itemRecord(i, item, q.IsLFModified(i))); err != nil {
			return nil, fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}

	out := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	if pd.Summary.TotalSum != nil {
		out = fmt.Appendf(out, "\n\nTotal,,,,%.2f", *pd.Summary.TotalSum)
	}
	return out, nil
}

// ExportXLSX renders the printable quote to a workbook with a "Quote" sheet
// and an "Items" sheet. The items sheet uses the CSV layout and can be loaded back.
func (s *FileService) ExportXLSX(p *PrintableQuote, q *domain.QuoteData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), quoteSheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}
	if err := writeQuoteSheet(f, p); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(itemsSheet); err != nil {
		return nil, fmt.Errorf("create items sheet: %w", err)
	}
	if err := writeItemsSheet(f, q); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeQuoteSheet(f *excelize.File, p *PrintableQuote) error {
	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 16},
	})
	if err != nil {
		return fmt.Errorf("create title style: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return fmt.Errorf("create money style: %w", err)
	}

	for col, width := range map[string]float64{"A": 28, "B": 16, "C": 12, "D": 12, "E": 14, "F": 14} {
		if err := f.SetColWidth(quoteSheet, col, col, width); err != nil {
			return fmt.Errorf("set col width: %w", err)
		}
	}

	if err := f.MergeCell(quoteSheet, "A1", "F1"); err != nil {
		return fmt.Errorf("merge title: %w", err)
	}
	f.SetCellValue(quoteSheet, "A1", "Quotation")
	f.SetCellStyle(quoteSheet, "A1", "F1", titleStyle)

	meta := [][2]string{
		{"Quote ID", p.QuoteID},
		{"Issue Date", p.IssueDate},
		{"Due Date", p.DueDate},
		{"Customer", p.Customer.Name},
		{"Address", p.Customer.Address},
		{"Phone", p.Customer.Phone},
		{"Email", p.Customer.Email},
	}
	row := 3
	for _, m := range meta {
		f.SetCellValue(quoteSheet, cell("A", row), m[0])
		f.SetCellValue(quoteSheet, cell("B", row), sanitizeExcelCell(m[1]))
		row++
	}

	row++
	f.SetCellValue(quoteSheet, cell("A", row), "Description")
	f.SetCellValue(quoteSheet, cell("B", row), "Price")
	f.SetCellStyle(quoteSheet, cell("A", row), cell("B", row), headerStyle)
	row++
	for _, r := range p.SummaryRows {
		f.SetCellValue(quoteSheet, cell("A", row), sanitizeExcelCell(r.Description))
		f.SetCellValue(quoteSheet, cell("B", row), r.Price)
		f.SetCellStyle(quoteSheet, cell("B", row), cell("B", row), moneyStyle)
		row++
	}

	row++
	for _, t := range []struct {
		label string
		value float64
	}{
		{"Sub Total", p.SubTotal},
		{"GST", p.GST},
		{"Total", p.FinalTotal},
	} {
		f.SetCellValue(quoteSheet, cell("A", row), t.label)
		f.SetCellValue(quoteSheet, cell("B", row), t.value)
		f.SetCellStyle(quoteSheet, cell("B", row), cell("B", row), moneyStyle)
		row++
	}

	row++
	headers := []string{"#", "Location", "Fabric", "Color", "Width", "Height"}
	for i, h := range headers {
		f.SetCellValue(quoteSheet, colCell(i, row), h)
	}
	f.SetCellStyle(quoteSheet, colCell(0, row), colCell(len(headers)-1, row), headerStyle)
	row++
	for _, it := range p.Items {
		values := []any{
			it.Sequence,
			sanitizeExcelCell(it.Location),
			sanitizeExcelCell(it.Fabric),
			sanitizeExcelCell(it.Color),
			intCell(it.Width),
			intCell(it.Height),
		}
		if err := f.SetSheetRow(quoteSheet, cell("A", row), &values); err != nil {
			return fmt.Errorf("write item row: %w", err)
		}
		row++
	}
	return nil
}

func writeItemsSheet(f *excelize.File, q *domain.QuoteData) error {
	header := make([]any, len(itemColumns))
	for i, h := range itemColumns {
		header[i] = h
	}
	if err := f.SetSheetRow(itemsSheet, "A1", &header); err != nil {
		return fmt.Errorf("write items header: %w", err)
	}
	row := 2
	for i, item := range q.CurrentItems() {
		if !item.HasDimension() {
			continue
		}
		record := itemRecord(i, item, q.IsLFModified(i))
		values := make([]any, len(record))
		for j, v := range record {
			values[j] = sanitizeExcelCell(v)
		}
		if err := f.SetSheetRow(itemsSheet, cell("A", row), &values); err != nil {
			return fmt.Errorf("write items row %d: %w", i+1, err)
		}
		row++
	}
	return nil
}

// ============================================================================
// Load
// ============================================================================

// ParseFileContent decodes an uploaded file by extension. JSON documents go
// through migration; CSV and XLSX files become a fresh quote holding their items.
func (s *FileService) ParseFileContent(fileName string, content []byte) LoadResult {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")

	var (
		q      *domain.QuoteData
		legacy bool
		err    error
	)
	switch ext {
	case ExtJSON:
		legacy = s.isLegacy(content)
		q, err = s.migration.Migrate(content)
	case ExtCSV:
		q, err = s.ParseCSV(content)
	case ExtXLSX:
		q, err = s.ParseXLSX(content)
	default:
		s.logger.Warn("Unsupported file type", zap.String("fileName", fileName))
		return LoadResult{Message: fmt.Sprintf("Unsupported file type: %s", fileName)}
	}
	if err != nil {
		s.logger.Error("Failed to parse file content", zap.String("fileName", fileName), zap.Error(err))
		return LoadResult{Message: fmt.Sprintf("Error loading file: %s", loadErrorMessage(err))}
	}

	msg := fmt.Sprintf("Successfully loaded data from %s", fileName)
	if legacy {
		msg = fmt.Sprintf("Successfully loaded legacy data from %s", fileName)
	}
	s.logger.Info("File loaded", zap.String("fileName", fileName), zap.Int("items", len(q.CurrentItems())))
	return LoadResult{Success: true, Message: msg, Data: q}
}

func (s *FileService) isLegacy(content []byte) bool {
	var shape documentShape
	if err := json.Unmarshal(content, &shape); err != nil {
		return false
	}
	return !shape.isModern() && shape.RollerBlindItems != nil
}

func loadErrorMessage(err error) string {
	if errors.Is(err, ErrInvalidDocument) {
		return "File content is not in a valid quote format."
	}
	return err.Error()
}

// ParseCSV reads items exported by ExportCSV. The first record is the header;
// total rows are skipped and rows flagged IsLF=1 are marked as LF-modified.
func (s *FileService) ParseCSV(content []byte) (*domain.QuoteData, error) {
	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty csv", ErrInvalidDocument)
	}
	return s.quoteFromRecords(records[1:]), nil
}

// ParseXLSX reads the items sheet of a workbook written by ExportXLSX
func (s *FileService) ParseXLSX(content []byte) (*domain.QuoteData, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(itemsSheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty items sheet", ErrInvalidDocument)
	}
	for _, row := range rows[1:] {
		for i, v := range row {
			row[i] = unsanitizeExcelCell(v)
		}
	}
	return s.quoteFromRecords(rows[1:]), nil
}

func (s *FileService) quoteFromRecords(records [][]string) *domain.QuoteData {
	blank := s.migration.blankItem(domain.ProductRollerBlind)
	q := domain.NewQuoteData(blank)

	items := make([]domain.Item, 0, len(records)+1)
	lf := []int{}
	for _, rec := range records {
		if isSkippedRecord(rec) {
			continue
		}
		item, isLF := parseItemRecord(rec)
		items = append(items, item)
		if isLF {
			lf = append(lf, len(items)-1)
		}
	}
	items = append(items, blank)

	pd := q.Products[domain.ProductRollerBlind]
	pd.Items = items
	q.Products[domain.ProductRollerBlind] = pd
	q.UIMetadata.LFModifiedRowIndexes = lf
	return q
}

func isSkippedRecord(rec []string) bool {
	if !slices.ContainsFunc(rec, func(v string) bool { return strings.TrimSpace(v) != "" }) {
		return true
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(rec[0])), "total")
}

// itemRecord renders one item in the itemColumns layout
func itemRecord(index int, item domain.Item, isLF bool) []string {
	price := ""
	if item.LinePrice != nil {
		price = strconv.FormatFloat(*item.LinePrice, 'f', 2, 64)
	}
	lf := "0"
	if isLF {
		lf = "1"
	}
	return []string{
		strconv.Itoa(index + 1),
		positiveInt(item.Width),
		positiveInt(item.Height),
		item.FabricType,
		price,
		item.Location,
		item.Fabric,
		item.Color,
		item.Over,
		item.OI,
		item.LR,
		item.Dual,
		positiveInt(item.Chain),
		item.Winder,
		item.Motor,
		lf,
	}
}

// parseItemRecord is the inverse of itemRecord. Zero or unparsable numbers become nil.
func parseItemRecord(rec []string) (domain.Item, bool) {
	field := func(i int) string {
		if i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	item := domain.Item{
		ItemID:     uuid.NewString(),
		Width:      parseInt(field(1)),
		Height:     parseInt(field(2)),
		FabricType: field(3),
		Location:   field(5),
		Fabric:     field(6),
		Color:      field(7),
		Over:       field(8),
		OI:         field(9),
		LR:         field(10),
		Dual:       field(11),
		Chain:      parseInt(field(12)),
		Winder:     field(13),
		Motor:      field(14),
	}
	if v, err := strconv.ParseFloat(field(4), 64); err == nil && v != 0 {
		item.LinePrice = domain.Float(v)
	}

	isLF := false
	if v := parseInt(field(15)); v != nil && *v == 1 {
		isLF = true
	}
	return item, isLF
}

func parseInt(s string) *int {
	if v, err := strconv.Atoi(s); err == nil {
		if v == 0 {
			return nil
		}
		return domain.Int(v)
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil && int(v) != 0 {
		return domain.Int(int(v))
	}
	return nil
}

func positiveInt(v *int) string {
	if v == nil || *v == 0 {
		return ""
	}
	return strconv.Itoa(*v)
}

func intCell(v *int) any {
	if v == nil {
		return ""
	}
	return *v
}

func cell(col string, row int) string {
	return col + strconv.Itoa(row)
}

func colCell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col+1, row)
	return name
}

// sanitizeExcelCell prevents user text from being evaluated as a formula
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

func unsanitizeExcelCell(s string) string {
	if len(s) > 1 && s[0] == '\'' && sanitizeExcelCell(s[1:]) == s {
		return s[1:]
	}
	return s
}

// readAllLimited reads at most limit bytes from r
func readAllLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidInput, limit)
	}
	return data, nil
}
