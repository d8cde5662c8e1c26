package client

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FlexNumber handles JSON values that can be either string or number.
type FlexNumber float64

func (f *FlexNumber) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = FlexNumber(num)
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		str = strings.TrimSpace(strings.ReplaceAll(str, ",", ""))
		if str == "" {
			*f = 0
			return nil
		}
		parsed, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return err
		}
		*f = FlexNumber(parsed)
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into FlexNumber", string(data))
}

// ToIntPtr converts to *int, dropping zero and negative values as unknown.
func (f *FlexNumber) ToIntPtr() *int {
	if f == nil || *f <= 0 {
		return nil
	}
	v := int(*f)
	return &v
}

// ToInt64Ptr converts to *int64, dropping zero and negative values as unknown.
func (f *FlexNumber) ToInt64Ptr() *int64 {
	if f == nil || *f <= 0 {
		return nil
	}
	v := int64(*f)
	return &v
}

// ToFloat64Ptr converts to *float64. Zero is a valid growth rate and is kept.
func (f *FlexNumber) ToFloat64Ptr() *float64 {
	if f == nil {
		return nil
	}
	v := float64(*f)
	return &v
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000-07:00",
	"2006-01-02",
	"2006-01",
}

// parseDate accepts the date shapes the provider returns. Empty or
// unparseable values are unknown.
func parseDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			utc := t.UTC()
			return &utc
		}
	}
	return nil
}
