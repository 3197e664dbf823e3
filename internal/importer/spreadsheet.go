package importer

import (
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// Record is one punch row parsed from a biometric device export. Times are
// wall-clock "15:04" values; Date is "2006-01-02".
type Record struct {
	VendorID string `json:"vendorId"`
	Date     string `json:"date"`
	CheckIn  string `json:"checkIn,omitempty"`
	CheckOut string `json:"checkOut,omitempty"`
}

// Binary uploads arrive base64-encoded with a format marker prefix, e.g.
// "base64:xlsx:UEsDB...". Text formats arrive verbatim.
const base64Marker = "base64:"

var ErrEmptyFile = errors.New("file contains no rows")

// Parse reads device punches out of an uploaded file and returns the records
// plus the distinct vendor identifiers in first-seen order.
func Parse(content string) ([]Record, []string, error) {
	rows, err := rowsFromContent(content)
	if err != nil {
		return nil, nil, err
	}

	records, err := recordsFromRows(rows)
	if err != nil {
		return nil, nil, err
	}

	seen := map[string]bool{}
	vendorIDs := []string{}
	for _, record := range records {
		if !seen[record.VendorID] {
			seen[record.VendorID] = true
			vendorIDs = append(vendorIDs, record.VendorID)
		}
	}
	return records, vendorIDs, nil
}

func rowsFromContent(content string) ([][]string, error) {
	if !strings.HasPrefix(content, base64Marker) {
		return rowsFromText(content)
	}

	rest := content[len(base64Marker):]
	sep := strings.Index(rest, ":")
	if sep <= 0 {
		return nil, errors.New("malformed base64 format marker")
	}
	ext := strings.ToLower(rest[:sep])
	data, err := base64.StdEncoding.DecodeString(rest[sep+1:])
	if err != nil {
		return nil, fmt.Errorf("decode spreadsheet: %w", err)
	}
	return rowsFromSpreadsheet(data, ext)
}

func rowsFromSpreadsheet(data []byte, ext string) ([][]string, error) {
	switch ext {
	case "xls":
		workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
		if err != nil {
			return nil, err
		}
		if workbook.NumSheets() == 0 {
			return nil, errors.New("no worksheet found")
		}
		rows := workbook.ReadAllCells(100000)
		if len(rows) == 0 {
			return nil, ErrEmptyFile
		}
		return rows, nil
	default:
		file, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer func() { _ = file.Close() }()

		sheetName := file.GetSheetName(0)
		if sheetName == "" {
			return nil, errors.New("no worksheet found")
		}
		rows, err := file.GetRows(sheetName)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, ErrEmptyFile
		}
		return rows, nil
	}
}

func rowsFromText(content string) ([][]string, error) {
	comma := ','
	firstLine := content
	if idx := strings.IndexByte(content, '\n'); idx >= 0 {
		firstLine = content[:idx]
	}
	if strings.Count(firstLine, "\t") > strings.Count(firstLine, ",") {
		comma = '\t'
	}

	reader := csv.NewReader(strings.NewReader(content))
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows := [][]string{}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}
	return rows, nil
}

func recordsFromRows(rows [][]string) ([]Record, error) {
	header := rows[0]
	vendorIdx := findColumn(header, "vendor id", "device id", "user id", "enroll id", "employee code")
	dateIdx := findColumn(header, "date", "day", "punch date")
	inIdx := findColumn(header, "check in", "checkin", "time in", "in", "first punch")
	outIdx := findColumn(header, "check out", "checkout", "time out", "out", "last punch")

	if vendorIdx < 0 || dateIdx < 0 {
		return nil, errors.New("header must include vendor/device id and date columns")
	}

	records := []Record{}
	for lineNo, row := range rows[1:] {
		vendorID := cellValue(row, vendorIdx)
		if vendorID == "" {
			continue
		}
		date, ok := normalizeDate(cellValue(row, dateIdx))
		if !ok {
			return nil, fmt.Errorf("row %d: invalid date %q", lineNo+2, cellValue(row, dateIdx))
		}

		record := Record{VendorID: vendorID, Date: date}
		if inIdx >= 0 {
			if clock, ok := normalizeClock(cellValue(row, inIdx)); ok {
				record.CheckIn = clock
			}
		}
		if outIdx >= 0 {
			if clock, ok := normalizeClock(cellValue(row, outIdx)); ok {
				record.CheckOut = clock
			}
		}
		records = append(records, record)
	}
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}
	return records, nil
}

func findColumn(header []string, names ...string) int {
	for idx, cell := range header {
		normalized := normalizeHeader(cell)
		for _, name := range names {
			if normalized == name {
				return idx
			}
		}
	}
	return -1
}

func normalizeHeader(header string) string {
	header = strings.ToLower(strings.TrimSpace(header))
	return strings.Join(strings.Fields(strings.ReplaceAll(header, "_", " ")), " ")
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

var dateFormats = []string{
	"2006-01-02",
	"2/1/2006",
	"02/01/2006",
	"1/2/2006",
	"01/02/2006",
	"2-1-2006",
	"02-01-2006",
	"2006/01/02",
	"Jan 2, 2006",
	"2 Jan 2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func normalizeDate(value string) (string, bool) {
	if value == "" {
		return "", false
	}

	// Excel stores dates as numeric serials in XLS/XLSX exports.
	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		if serial >= 20000 && serial <= 80000 {
			if parsed, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return parsed.Format("2006-01-02"), true
			}
		}
		return "", false
	}

	for _, format := range dateFormats {
		if parsed, err := time.Parse(format, value); err == nil {
			return parsed.Format("2006-01-02"), true
		}
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed.Format("2006-01-02"), true
	}
	return "", false
}

var clockFormats = []string{
	"15:04",
	"15:04:05",
	"3:04 PM",
	"03:04 PM",
	"3:04:05 PM",
}

func normalizeClock(value string) (string, bool) {
	if value == "" {
		return "", false
	}

	// Excel stores times as day fractions.
	if fraction, err := strconv.ParseFloat(value, 64); err == nil {
		if fraction >= 0 && fraction < 1 {
			minutes := int(fraction*24*60 + 0.5)
			return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60), true
		}
		return "", false
	}

	for _, format := range clockFormats {
		if parsed, err := time.Parse(format, strings.ToUpper(value)); err == nil {
			return parsed.Format("15:04"), true
		}
	}
	return "", false
}

// EncodeBinary wraps raw spreadsheet bytes in the wire format the parse
// endpoint expects.
func EncodeBinary(data []byte, ext string) string {
	return base64Marker + strings.ToLower(strings.TrimPrefix(ext, ".")) + ":" + base64.StdEncoding.EncodeToString(data)
}
