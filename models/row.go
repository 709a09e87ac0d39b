package models

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Row is one raw result row keyed by column name, as scanned by the
// repository. NULL values are present with a nil value; absent keys are
// columns the query never projected.
type Row map[string]any

func (r Row) value(key string) (any, error) {
	v, ok := r[key]
	if !ok {
		return nil, &SchemaIntegrityError{Field: key, Row: r}
	}
	return v, nil
}

func (r Row) invalid(key string, v any) error {
	return &SchemaIntegrityError{Field: key, Reason: fmt.Sprintf("holds unexpected value %v (%T)", v, v), Row: r}
}

// Require fails on the first key that is absent from the row.
func (r Row) Require(keys ...string) error {
	for _, key := range keys {
		if _, err := r.value(key); err != nil {
			return err
		}
	}
	return nil
}

func (r Row) Int64(key string) (int64, error) {
	v, err := r.value(key)
	if err != nil {
		return 0, err
	}
	switch t := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return t, nil
	case int32:
		return int64(t), nil
	case int16:
		return int64(t), nil
	case int8:
		return int64(t), nil
	case int:
		return int64(t), nil
	case uint64:
		return int64(t), nil
	case uint32:
		return int64(t), nil
	case uint16:
		return int64(t), nil
	case uint8:
		return int64(t), nil
	case uint:
		return int64(t), nil
	case float64:
		return r.integral(key, v, t)
	case float32:
		return r.integral(key, v, float64(t))
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	case []byte:
		return r.parseInt(key, string(t))
	case sql.RawBytes:
		return r.parseInt(key, string(t))
	case string:
		return r.parseInt(key, t)
	}
	return 0, r.invalid(key, v)
}

func (r Row) parseInt(key, s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	// quantities occasionally come back as DECIMAL
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsInteger() {
		return 0, r.invalid(key, s)
	}
	return d.IntPart(), nil
}

// integral rejects floats with a fractional part or outside the int64 range.
func (r Row) integral(key string, v any, f float64) (int64, error) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, r.invalid(key, v)
	}
	return int64(f), nil
}

func (r Row) ID(key string) (EntityID, error) {
	n, err := r.Int64(key)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, r.invalid(key, n)
	}
	return EntityID(n), nil
}

func (r Row) String(key string) (string, error) {
	v, err := r.value(key)
	if err != nil {
		return "", err
	}
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	case sql.RawBytes:
		return string(t), nil
	case fmt.Stringer:
		return t.String(), nil
	case int64, int32, int, uint64, uint32, uint8, float64:
		return fmt.Sprint(t), nil
	}
	return "", r.invalid(key, v)
}

func (r Row) Decimal(key string) (decimal.Decimal, error) {
	v, err := r.value(key)
	if err != nil {
		return decimal.Zero, err
	}
	switch t := v.(type) {
	case nil:
		return decimal.Zero, nil
	case decimal.Decimal:
		return t, nil
	case float64:
		return decimal.NewFromFloat(t), nil
	case float32:
		return decimal.NewFromFloat32(t), nil
	case int64:
		return decimal.NewFromInt(t), nil
	case int32:
		return decimal.NewFromInt32(t), nil
	case int:
		return decimal.NewFromInt(int64(t)), nil
	case []byte:
		return r.parseDecimal(key, string(t))
	case sql.RawBytes:
		return r.parseDecimal(key, string(t))
	case string:
		return r.parseDecimal(key, t)
	}
	return decimal.Zero, r.invalid(key, v)
}

func (r Row) parseDecimal(key, s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, r.invalid(key, s)
	}
	return d, nil
}

func (r Row) Bool(key string) (bool, error) {
	v, err := r.value(key)
	if err != nil {
		return false, err
	}
	if b, ok := v.(bool); ok {
		return b, nil
	}
	n, err := r.Int64(key)
	if err != nil {
		return false, err
	}
	return n != 0, nil
}

const mysqlDateTime = "2006-01-02 15:04:05"

// Time returns the zero time for NULL and for MySQL zero dates, which the
// store uses to mean "unbounded".
func (r Row) Time(key string) (time.Time, error) {
	v, err := r.value(key)
	if err != nil {
		return time.Time{}, err
	}
	var s string
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return t, nil
	case []byte:
		s = string(t)
	case sql.RawBytes:
		s = string(t)
	case string:
		s = t
	default:
		return time.Time{}, r.invalid(key, v)
	}
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "0000-00-00") {
		return time.Time{}, nil
	}
	for _, layout := range []string{mysqlDateTime, time.RFC3339, "2006-01-02"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, r.invalid(key, s)
}

// reader accumulates the first decoding error so row decoders can read
// every column in sequence and check once.
type reader struct {
	row Row
	err error
}

func (rd *reader) id(key string) EntityID {
	if rd.err != nil {
		return 0
	}
	v, err := rd.row.ID(key)
	rd.err = err
	return v
}

func (rd *reader) int64(key string) int64 {
	if rd.err != nil {
		return 0
	}
	v, err := rd.row.Int64(key)
	rd.err = err
	return v
}

func (rd *reader) string(key string) string {
	if rd.err != nil {
		return ""
	}
	v, err := rd.row.String(key)
	rd.err = err
	return v
}

// optString reads a column that older schemas do not have.
func (rd *reader) optString(key string) string {
	if _, ok := rd.row[key]; !ok {
		return ""
	}
	return rd.string(key)
}

func (rd *reader) decimal(key string) decimal.Decimal {
	if rd.err != nil {
		return decimal.Zero
	}
	v, err := rd.row.Decimal(key)
	rd.err = err
	return v
}

func (rd *reader) bool(key string) bool {
	if rd.err != nil {
		return false
	}
	v, err := rd.row.Bool(key)
	rd.err = err
	return v
}

func (rd *reader) optBool(key string) bool {
	if _, ok := rd.row[key]; !ok {
		return false
	}
	return rd.bool(key)
}

func (rd *reader) time(key string) time.Time {
	if rd.err != nil {
		return time.Time{}
	}
	v, err := rd.row.Time(key)
	rd.err = err
	return v
}

// DecodeRows decodes every row, failing on the first broken one.
func DecodeRows[T any](rows []Row, decode func(Row) (T, error)) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		v, err := decode(row)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
