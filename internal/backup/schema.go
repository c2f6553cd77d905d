package backup

import (
	"fmt"
	"regexp"
	"strings"
)

// The backup file is a flat, sectioned plain-text format. Sections are
// introduced by a bracketed name on its own line. Key-value sections hold one
// key,value pair per line; tabular sections hold a header row followed by one
// row per record. Field values containing a delimiter, a quote, or a line
// break are quoted, with internal quotes doubled.

const fieldDelimiter = ','

var sectionHeaderRegex = regexp.MustCompile(`^\[([A-Z_]+)\]$`)

// escapeField quotes v if it contains a delimiter, a quote, or a line break.
func escapeField(v string) string {
	if strings.ContainsAny(v, ",\"\n\r") {
		return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
	}
	return v
}

// joinFields serializes one record line, escaping each field as needed.
func joinFields(fields []string) string {
	escaped := make([]string, len(fields))
	for i, f := range fields {
		escaped[i] = escapeField(f)
	}
	return strings.Join(escaped, string(fieldDelimiter))
}

// splitFields splits a record line into its fields. A delimiter inside an
// open quote does not terminate a field; a doubled quote inside an open
// quoted field is an escaped quote, not a close-and-reopen.
func splitFields(line string) ([]string, error) {
	var fields []string
	var cur strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case inQuotes:
			if ch == '"' {
				if i+1 < len(line) && line[i+1] == '"' {
					cur.WriteByte('"')
					i++
				} else {
					inQuotes = false
				}
			} else {
				cur.WriteByte(ch)
			}
		case ch == '"':
			inQuotes = true
		case ch == fieldDelimiter:
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(ch)
		}
	}

	if inQuotes {
		return nil, fmt.Errorf("unterminated quote in %q", line)
	}
	return append(fields, cur.String()), nil
}

// splitRecords splits raw text into logical record lines. A line break inside
// an open quote belongs to the field, not to the record boundary.
func splitRecords(text string) []string {
	var records []string
	var cur strings.Builder
	inQuotes := false

	for i := 0; i < len(text); i++ {
		ch := text[i]
		switch {
		case ch == '"':
			inQuotes = !inQuotes
			cur.WriteByte(ch)
		case (ch == '\n' || ch == '\r') && !inQuotes:
			if ch == '\r' && i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			records = append(records, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(ch)
		}
	}
	if cur.Len() > 0 {
		records = append(records, cur.String())
	}
	return records
}

// splitSections groups record lines under the most recently seen section
// header. Blank lines are skipped and lines before any header are discarded.
func splitSections(text string) map[string][]string {
	sections := make(map[string][]string)
	var current string

	for _, line := range splitRecords(text) {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if m := sectionHeaderRegex.FindStringSubmatch(trimmed); m != nil {
			current = m[1]
			if _, ok := sections[current]; !ok {
				sections[current] = nil
			}
			continue
		}
		if current == "" {
			continue
		}
		sections[current] = append(sections[current], line)
	}
	return sections
}

// parseKeyValues turns a key-value section into a flat map. Lines without a
// value column map to the empty string.
func parseKeyValues(lines []string) map[string]string {
	values := make(map[string]string, len(lines))
	for _, line := range lines {
		fields, err := splitFields(line)
		if err != nil || len(fields) == 0 {
			continue
		}
		key := fields[0]
		if len(fields) > 1 {
			values[key] = fields[1]
		} else {
			values[key] = ""
		}
	}
	return values
}

// Row is one record of a tabular section, indexed by header name. Access of a
// column outside the parsed header set returns an empty string.
type Row map[string]string

// Get returns the value of the named column, or "" when absent.
func (r Row) Get(key string) string { return r[key] }

// parseTable parses a tabular section using the first line as headers. Rows
// shorter than the header are back-filled with empty strings. A row that
// cannot be split is dropped and reported in the second return value; a
// malformed header row fails the whole table.
func parseTable(lines []string) ([]Row, []error, error) {
	if len(lines) == 0 {
		return nil, nil, nil
	}

	headers, err := splitFields(lines[0])
	if err != nil {
		return nil, nil, fmt.Errorf("malformed header row: %w", err)
	}

	var rows []Row
	var dropped []error
	for n, line := range lines[1:] {
		fields, err := splitFields(line)
		if err != nil {
			dropped = append(dropped, fmt.Errorf("row %d: %w", n+1, err))
			continue
		}
		row := make(Row, len(headers))
		for i, h := range headers {
			if i < len(fields) {
				row[h] = fields[i]
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, dropped, nil
}
