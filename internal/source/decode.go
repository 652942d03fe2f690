// Package source loads raw death records from local exports or the
// datos.gov.co API and decodes them into flat raw records.
package source

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"deathmap/internal/models"
)

// Ingest errors. Every failure to obtain or parse a raw document wraps ErrIngest.
var (
	ErrIngest            = errors.New("ingest failed")
	ErrMalformedDocument = errors.New("malformed raw document")
	ErrNotArray          = errors.New("raw document is not an array of records")
	ErrUnknownFormat     = errors.New("unknown raw format")
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Decode parses data according to format ("json" or "csv").
func Decode(data []byte, format string) ([]models.RawRecord, error) {
	switch format {
	case "", "json":
		return DecodeJSON(data)
	case "csv":
		return DecodeCSV(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("%w: %w: %q", ErrIngest, ErrUnknownFormat, format)
	}
}

// DecodeJSON parses a top-level JSON array of flat objects. Scalar values are
// stringified; null and nested values are dropped. Elements that are not
// objects decode as empty records so the output has one entry per element.
func DecodeJSON(data []byte) ([]models.RawRecord, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w: %v", ErrIngest, ErrMalformedDocument, err)
	}

	items, ok := doc.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %w: got %s", ErrIngest, ErrNotArray, jsonKind(doc))
	}

	records := make([]models.RawRecord, 0, len(items))

	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			records = append(records, models.RawRecord{})
			continue
		}

		rec := make(models.RawRecord, len(obj))
		for key, val := range obj {
			if s, ok := scalarString(val); ok {
				rec[key] = norm.NFC.String(s)
			}
		}

		records = append(records, rec)
	}

	return records, nil
}

// DecodeCSV parses a CSV export with a header row. Header labels are folded
// to the API's snake_case keys ("Sexo de la víctima" -> "sexo_de_la_victima").
// Short rows simply lack the trailing keys. An empty input yields no records.
func DecodeCSV(r io.Reader) ([]models.RawRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []models.RawRecord{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %w: reading header: %v", ErrIngest, ErrMalformedDocument, err)
	}

	keys := make([]string, len(header))
	for i, h := range header {
		keys[i] = HeaderKey(h)
	}

	records := []models.RawRecord{}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("%w: %w: %v", ErrIngest, ErrMalformedDocument, err)
		}

		rec := make(models.RawRecord, len(row))
		for i, val := range row {
			if i >= len(keys) || keys[i] == "" {
				continue
			}

			rec[keys[i]] = norm.NFC.String(strings.TrimSpace(val))
		}

		records = append(records, rec)
	}

	return records, nil
}

// HeaderKey folds a CSV header label into an API field key.
func HeaderKey(label string) string {
	label = strings.TrimPrefix(label, "\ufeff")

	folded, _, err := transform.String(stripMarks, strings.ToLower(strings.TrimSpace(label)))
	if err != nil {
		folded = strings.ToLower(strings.TrimSpace(label))
	}

	var sb strings.Builder

	lastUnderscore := false

	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)

			lastUnderscore = false

			continue
		}

		if !lastUnderscore && sb.Len() > 0 {
			sb.WriteByte('_')

			lastUnderscore = true
		}
	}

	return strings.TrimSuffix(sb.String(), "_")
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

func jsonKind(v any) string {
	switch v.(type) {
	case map[string]any:
		return "object"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}
