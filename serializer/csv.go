package serializer

import (
	"bytes"
	"encoding/csv"
	"reflect"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"github.com/nojima/restie/mapper"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// CSVSerializer writes slices of structs or maps as a header row followed
// by one record per element, and reads such documents back.
type CSVSerializer struct {
	Delimiter rune
}

func NewCSVSerializer() *CSVSerializer {
	return &CSVSerializer{Delimiter: ','}
}

func (s *CSVSerializer) Format() DataFormat { return CSV }

func (s *CSVSerializer) ContentType() string { return ContentTypeCSV }

func (s *CSVSerializer) AcceptedContentTypes() []string { return csvContentTypes }

func (s *CSVSerializer) Serialize(v any) ([]byte, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}

	var rows []reflect.Value
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			rows = append(rows, rv.Index(i))
		}
	case reflect.Struct, reflect.Map:
		rows = []reflect.Value{rv}
	default:
		return nil, errors.Errorf("csv: cannot serialize %s", rv.Kind())
	}

	header, cells, err := csvLayout(rows)
	if err != nil {
		return nil, err
	}
	if len(header) == 0 {
		return nil, nil
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = s.Delimiter
	if err := w.Write(header); err != nil {
		return nil, errors.Wrap(err, "serializing csv")
	}
	for _, record := range cells {
		if err := w.Write(record); err != nil {
			return nil, errors.Wrap(err, "serializing csv")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errors.Wrap(err, "serializing csv")
	}
	return buf.Bytes(), nil
}

func csvLayout(rows []reflect.Value) ([]string, [][]string, error) {
	if len(rows) == 0 {
		return nil, nil, nil
	}
	first := rows[0]
	for first.Kind() == reflect.Ptr || first.Kind() == reflect.Interface {
		first = first.Elem()
	}

	if first.Kind() == reflect.Map {
		keySet := make(map[string]bool)
		for i, row := range rows {
			for row.Kind() == reflect.Ptr || row.Kind() == reflect.Interface {
				row = row.Elem()
			}
			if row.Kind() != reflect.Map {
				return nil, nil, errors.New("csv: rows must all be maps")
			}
			for _, k := range row.MapKeys() {
				keySet[cast.ToString(k.Interface())] = true
			}
			rows[i] = row
		}
		header := make([]string, 0, len(keySet))
		for k := range keySet {
			header = append(header, k)
		}
		sort.Strings(header)
		cells := make([][]string, len(rows))
		for i, row := range rows {
			values := make(map[string]any, row.Len())
			iter := row.MapRange()
			for iter.Next() {
				values[cast.ToString(iter.Key().Interface())] = iter.Value().Interface()
			}
			record := make([]string, len(header))
			for j, k := range header {
				c, err := cell(values[k])
				if err != nil {
					return nil, nil, errors.Wrapf(err, "csv: column %s", k)
				}
				record[j] = c
			}
			cells[i] = record
		}
		return header, cells, nil
	}

	if first.Kind() != reflect.Struct {
		return nil, nil, errors.Errorf("csv: cannot serialize rows of %s", first.Kind())
	}
	fields := mapper.WireFields(first.Type())
	header := make([]string, len(fields))
	for i, f := range fields {
		header[i] = f.Name
	}
	cells := make([][]string, len(rows))
	for i, row := range rows {
		for row.Kind() == reflect.Ptr || row.Kind() == reflect.Interface {
			row = row.Elem()
		}
		if !row.IsValid() {
			cells[i] = make([]string, len(fields))
			continue
		}
		if row.Type() != first.Type() {
			return nil, nil, errors.New("csv: rows must all share one struct type")
		}
		record := make([]string, len(fields))
		for j, f := range fields {
			v, ok := fieldValue(row, f.Index)
			if !ok {
				continue
			}
			c, err := cell(v.Interface())
			if err != nil {
				return nil, nil, errors.Wrapf(err, "csv: column %s", f.Name)
			}
			record[j] = c
		}
		cells[i] = record
	}
	return header, cells, nil
}

func fieldValue(v reflect.Value, index []int) (reflect.Value, bool) {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Ptr {
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v, true
}

// cell renders one value. Slices, maps and structs without a string form
// are written as JSON text.
func cell(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case time.Time:
		return x.Format(time.RFC3339Nano), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return "", nil
		}
		return cell(rv.Elem().Interface())
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s, nil
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Struct:
		if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Map) && rv.IsNil() {
			return "", nil
		}
		data, err := json.Marshal(v)
		if err != nil {
			return "", errors.Wrapf(err, "rendering %T", v)
		}
		return string(data), nil
	}
	return "", errors.Errorf("cannot render %T as a csv cell", v)
}

// Deserialize reads a header row and maps each record, keyed by header,
// onto v. A slice target receives every record; any other target receives
// the first one.
func (s *CSVSerializer) Deserialize(data []byte, v any, opts mapper.Options) error {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	r.Comma = s.Delimiter
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return errors.Wrap(err, "parsing csv")
	}

	rows := make([]any, 0, len(records))
	if len(records) > 0 {
		header := records[0]
		for _, record := range records[1:] {
			row := make(map[string]any, len(header))
			for i, name := range header {
				if i < len(record) {
					row[name] = record[i]
				}
			}
			rows = append(rows, row)
		}
	}

	target := reflect.TypeOf(v)
	for target != nil && target.Kind() == reflect.Ptr {
		target = target.Elem()
	}
	m := mapper.New(opts)
	if target != nil && (target.Kind() == reflect.Slice || target.Kind() == reflect.Array || target.Kind() == reflect.Interface) {
		return m.Map(rows, v)
	}
	if len(rows) == 0 {
		return nil
	}
	return m.Map(rows[0], v)
}
