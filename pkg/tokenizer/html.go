package tokenizer

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dtnitsch/topic-scores/models"
)

// HTMLSource yields records from the rows of HTML tables.
// Each <tr> with <td> cells is one record: key, verb, topic.
// Rows without <td> cells (header rows) are skipped.
type HTMLSource struct {
	records []models.ActionRecord
	pos     int
	err     error
}

// FromHTML parses an HTML document and returns its table rows as a record source.
// A row with fewer than three cells is reported when Next reaches it.
func FromHTML(r io.Reader) (*HTMLSource, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	src := &HTMLSource{}
	doc.Find("tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		cells := row.Find("td")
		if cells.Length() == 0 {
			return true
		}

		fields := make([]string, 0, FieldsPerRecord)
		cells.Each(func(_ int, cell *goquery.Selection) {
			fields = append(fields, strings.TrimSpace(cell.Text()))
		})

		if len(fields) < FieldsPerRecord {
			src.err = &MalformedInputError{
				Record: len(src.records) + 1,
				Fields: fields,
				Reason: fmt.Sprintf("expected %d cells, got %d", FieldsPerRecord, len(fields)),
			}
			return false
		}

		src.records = append(src.records, models.ActionRecord{
			Key:   fields[0],
			Verb:  fields[1],
			Topic: fields[2],
		})
		return true
	})

	return src, nil
}

// Next returns the next row, the deferred malformed-row error, or io.EOF.
func (s *HTMLSource) Next() (models.ActionRecord, error) {
	if s.pos < len(s.records) {
		rec := s.records[s.pos]
		s.pos++
		return rec, nil
	}
	if s.err != nil {
		return models.ActionRecord{}, s.err
	}
	return models.ActionRecord{}, io.EOF
}
