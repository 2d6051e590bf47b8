package model

import (
	"strconv"
	"time"
)

// FormatValue renders a database or Arrow value in the textual form kept
// in a Record. nil becomes the empty string.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case time.Time:
		return FormatTime(x)
	default:
		return ""
	}
}

// FormatTime renders a timestamp as ISO8601. Dates at midnight UTC are
// rendered without the time part.
func FormatTime(t time.Time) string {
	t = t.UTC()
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	if t.Nanosecond() == 0 {
		return t.Format("2006-01-02 15:04:05")
	}
	return t.Format("2006-01-02 15:04:05.000000")
}

// SQLValue converts a non-NULL textual value to what is bound for a column
// of type ct. Numeric columns are parsed when possible; the empty string
// stays an empty string.
func SQLValue(value string, ct ColumnType) any {
	switch ct {
	case ColumnTypeInteger:
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	case ColumnTypeReal:
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return value
}
