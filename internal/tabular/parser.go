// Package tabular parses operator-supplied delimited text files into rows of
// trimmed string fields and resolves header columns to semantic fields.
package tabular

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

// Encoding names accepted for input files.
const (
	EncodingUTF8  = "utf-8"
	EncodingEUCKR = "euc-kr"
)

// Row is one logical record from the input file.
type Row []string

// Result holds the parsed file: the header row and the data rows that follow
// it. Records consisting entirely of empty fields are dropped.
type Result struct {
	Header Row
	Rows   []Row
	// UnterminatedQuote is set when the file ended inside a quoted field. The
	// remaining text is flushed into the final field rather than discarded,
	// but callers should surface a warning.
	UnterminatedQuote bool
}

// Decode converts raw file bytes in the named encoding to a UTF-8 string.
func Decode(raw []byte, encoding string) (string, error) {
	switch strings.ToLower(encoding) {
	case "", EncodingUTF8:
		return string(raw), nil
	case EncodingEUCKR, "euckr", "cp949":
		decoded, _, err := transform.Bytes(korean.EUCKR.NewDecoder(), raw)
		if err != nil {
			return "", fmt.Errorf("failed to decode EUC-KR input: %w", err)
		}
		return string(decoded), nil
	default:
		return "", fmt.Errorf("unsupported encoding: %s", encoding)
	}
}

// Parse scans the full file text in a single pass. A double quote toggles
// quote mode; a doubled quote inside a quoted field un-escapes to a literal
// quote; commas outside quotes end fields; \r, \n, or \r\n outside quotes end
// records. A final record without a trailing line break is still flushed.
// Malformed quoting is not a hard error: the scanner treats the remaining
// text as part of the field and flags it on the result.
func Parse(text string) Result {
	var (
		result  Result
		record  Row
		field   strings.Builder
		inQuote bool
		started bool
	)

	runes := []rune(text)

	flushField := func() {
		record = append(record, strings.TrimSpace(field.String()))
		field.Reset()
	}

	flushRecord := func() {
		flushField()
		blank := true
		for _, f := range record {
			if f != "" {
				blank = false
				break
			}
		}
		if !blank {
			if !started {
				result.Header = record
				started = true
			} else {
				result.Rows = append(result.Rows, record)
			}
		}
		record = nil
	}

	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '"':
			if inQuote && i+1 < len(runes) && runes[i+1] == '"' {
				field.WriteRune('"')
				i++
			} else {
				inQuote = !inQuote
			}
		case ch == ',' && !inQuote:
			flushField()
		case (ch == '\n' || ch == '\r') && !inQuote:
			if ch == '\r' && i+1 < len(runes) && runes[i+1] == '\n' {
				i++
			}
			flushRecord()
		default:
			field.WriteRune(ch)
		}
	}

	// Flush a final record not terminated by a line break.
	if field.Len() > 0 || len(record) > 0 {
		flushRecord()
	}

	result.UnterminatedQuote = inQuote
	return result
}
