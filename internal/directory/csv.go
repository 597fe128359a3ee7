package directory

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/rc-medicall/backend/internal/storage/models"
)

// byteOrderMark makes spreadsheet applications open the export as UTF-8.
const byteOrderMark = "\ufeff"

// contactNamespace scopes the name-based UUIDs minted for imported rows.
var contactNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("rc-medicall:contacts"))

// ErrNoHeader is returned when an import has no recognisable header row.
var ErrNoHeader = errors.New("import has no NOMBRE/name column")

// ImportResult is the outcome of parsing an import file.
type ImportResult struct {
	Contacts []models.Contact `json:"contacts"`
	Skipped  int              `json:"skipped"`
}

// ParseCSV reads a directory CSV. Headers are matched case- and accent-insensitively
// against the Spanish column names and the JSON field names; unknown columns are
// ignored and missing ones left empty. Rows without a name, and rows that do not
// fit the header, are skipped and counted.
func ParseCSV(r io.Reader) (*ImportResult, error) {
	br := bufio.NewReader(r)
	if b, err := br.Peek(len(byteOrderMark)); err == nil && string(b) == byteOrderMark {
		_, _ = br.Discard(len(byteOrderMark))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	p, err := newRowParser(header)
	if err != nil {
		return nil, err
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			p.result.Skipped++
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}
		p.add(record)
	}
	return p.result, nil
}

// rowParser turns header-addressed rows into contacts.
type rowParser struct {
	width  int
	fields []*column
	result *ImportResult
}

func newRowParser(header []string) (*rowParser, error) {
	p := &rowParser{
		width:  len(header),
		fields: make([]*column, len(header)),
		result: &ImportResult{Contacts: []models.Contact{}},
	}
	hasName := false
	for i, h := range header {
		col := columnIndex[foldKey(h)]
		p.fields[i] = col
		if col != nil && col.header == "NOMBRE" {
			hasName = true
		}
	}
	if !hasName {
		return nil, ErrNoHeader
	}
	return p, nil
}

func (p *rowParser) add(record []string) {
	if len(record) > p.width {
		p.result.Skipped++
		return
	}
	if blank(record) {
		return
	}

	var c models.Contact
	for i, v := range record {
		if col := p.fields[i]; col != nil {
			col.set(&c, strings.TrimSpace(v))
		}
	}
	if strings.TrimSpace(c.Name) == "" {
		p.result.Skipped++
		return
	}

	if c.Classification == "" {
		c.Classification = models.ClassificationC
	}
	c.Normalize()
	if !c.Category.Valid() {
		p.result.Skipped++
		return
	}
	if c.ID == "" {
		c.ID = contactID(c)
	}
	p.result.Contacts = append(p.result.Contacts, c)
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// contactID derives a stable ID from a contact's identity, so importing the same
// file twice updates rather than duplicates.
func contactID(c models.Contact) string {
	key := strings.Join([]string{string(c.Category), c.Executive, c.Name, c.Address}, "|")
	return c.Category.IDPrefix() + "-" + uuid.NewSHA1(contactNamespace, []byte(key)).String()
}

// WriteCSV writes contacts as a fully quoted CSV with a UTF-8 byte order mark.
func WriteCSV(w io.Writer, contacts []models.Contact) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(byteOrderMark); err != nil {
		return err
	}
	if err := writeQuoted(bw, headers()); err != nil {
		return err
	}
	for i := range contacts {
		if err := writeQuoted(bw, record(&contacts[i])); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func record(c *models.Contact) []string {
	out := make([]string, len(columns))
	for i, col := range columns {
		out[i] = col.get(c)
	}
	return out
}

// writeQuoted writes one line quoting every field. encoding/csv only quotes
// fields that need it.
func writeQuoted(w *bufio.Writer, fields []string) error {
	for i, f := range fields {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(`"` + strings.ReplaceAll(f, `"`, `""`) + `"`); err != nil {
			return err
		}
	}
	_, err := w.WriteString("\r\n")
	return err
}
