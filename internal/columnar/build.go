package columnar

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/koustreak/IceFlow/internal/errs"
)

// BuildRecord converts key-value rows into one Arrow record batch with the
// schema's layout and field-id metadata, preserving row order. Keys absent
// from the schema are ignored; fields absent from a row become nulls.
//
// The caller owns the returned record and must Release it.
func (s *Schema) BuildRecord(rows []map[string]any) (arrow.Record, error) {
	b := array.NewRecordBuilder(memory.DefaultAllocator, s.Arrow())
	defer b.Release()

	for _, row := range rows {
		for i, f := range s.Fields {
			if err := appendValue(b.Field(i), f.Type, row[f.Name]); err != nil {
				return nil, errs.Wrap(errs.ErrKindInvalidInput,
					fmt.Sprintf("field %q does not match its schema type %s", f.Name, f.Type), err)
			}
		}
	}

	return b.NewRecord(), nil
}

// appendValue writes one value into a builder according to the column
// type. Values come from JSON decoding, so numbers arrive as float64 (or
// json.Number), temporals as strings.
func appendValue(bldr array.Builder, t ColumnType, v any) error {
	if v == nil {
		bldr.AppendNull()
		return nil
	}

	switch t.Kind {
	case KindInt64:
		n, err := toInt64(v)
		if err != nil {
			return err
		}
		bldr.(*array.Int64Builder).Append(n)

	case KindFloat64:
		n, err := toFloat64(v)
		if err != nil {
			return err
		}
		bldr.(*array.Float64Builder).Append(n)

	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", v)
		}
		bldr.(*array.BooleanBuilder).Append(b)

	case KindString:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", v)
		}
		bldr.(*array.StringBuilder).Append(s)

	case KindDate:
		ts, err := toTime(v, "2006-01-02")
		if err != nil {
			return err
		}
		bldr.(*array.Date64Builder).Append(arrow.Date64FromTime(ts))

	case KindTime:
		ts, err := toTime(v, "15:04:05")
		if err != nil {
			return err
		}
		micros := int64(ts.Hour())*3600_000_000 +
			int64(ts.Minute())*60_000_000 +
			int64(ts.Second())*1_000_000 +
			int64(ts.Nanosecond())/1_000
		bldr.(*array.Time64Builder).Append(arrow.Time64(micros))

	case KindTimestampUTC:
		ts, err := toTime(v, time.RFC3339Nano)
		if err != nil {
			return err
		}
		bldr.(*array.TimestampBuilder).Append(arrow.Timestamp(ts.UTC().UnixMicro()))

	case KindList:
		items, ok := v.([]any)
		if !ok {
			return fmt.Errorf("expected array, got %T", v)
		}
		lb := bldr.(*array.ListBuilder)
		lb.Append(true)
		for _, item := range items {
			if err := appendValue(lb.ValueBuilder(), *t.Elem, item); err != nil {
				return err
			}
		}

	case KindStruct:
		obj, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("expected object, got %T", v)
		}
		sb := bldr.(*array.StructBuilder)
		sb.Append(true)
		for i, f := range t.Fields {
			if err := appendValue(sb.FieldBuilder(i), f.Type, obj[f.Name]); err != nil {
				return err
			}
		}

	default:
		// Null-typed column: every value degrades to null.
		bldr.AppendNull()
	}

	return nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case float64:
		return int64(n), nil
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case json.Number:
		return n.Int64()
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}

// toTime parses a temporal value: a string in layout (falling back to
// RFC 3339 for date-typed values that arrive as full timestamps), or a
// time.Time passed through programmatically.
func toTime(v any, layout string) (time.Time, error) {
	switch val := v.(type) {
	case time.Time:
		return val, nil
	case string:
		if ts, err := time.Parse(layout, val); err == nil {
			return ts, nil
		}
		ts, err := time.Parse(time.RFC3339Nano, val)
		if err != nil {
			return time.Time{}, fmt.Errorf("cannot parse %q as %s", val, layout)
		}
		return ts, nil
	default:
		return time.Time{}, fmt.Errorf("expected temporal string, got %T", v)
	}
}
