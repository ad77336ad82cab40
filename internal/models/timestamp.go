package models

import (
	"fmt"
	"strings"
	"time"
)

// TimestampLayout - формат меток времени в ответах и сообщениях
const TimestampLayout = "2006-01-02T15:04:05Z"

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseTimestamp разбирает метку времени. Метки без часового пояса считаются UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// FormatTimestamp форматирует время в UTC как YYYY-MM-DDTHH:MM:SSZ
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
