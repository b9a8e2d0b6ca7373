package format

import (
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"
)

// TextFormatter handles simple text output formatting
type TextFormatter struct {
	w io.Writer
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{w: w}
}

// Format formats data as "Key: value" lines
func (f *TextFormatter) Format(data any) error {
	v := indirect(reflect.ValueOf(data))
	if !v.IsValid() {
		fmt.Fprintln(f.w, "No data")
		return nil
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		return f.formatSlice(v)
	default:
		f.formatItem(v, "")
		return nil
	}
}

// formatSlice prints each element as a numbered block
func (f *TextFormatter) formatSlice(v reflect.Value) error {
	if v.Len() == 0 {
		fmt.Fprintln(f.w, "No data")
		return nil
	}

	for i := 0; i < v.Len(); i++ {
		item := indirect(v.Index(i))
		if !isRecord(item) {
			fmt.Fprintln(f.w, f.formatValue(item))
			continue
		}
		if i > 0 {
			fmt.Fprintln(f.w)
		}
		fmt.Fprintf(f.w, "Item %d:\n", i+1)
		f.formatItem(item, "  ")
	}
	return nil
}

func (f *TextFormatter) formatItem(v reflect.Value, indent string) {
	switch {
	case v.Kind() == reflect.Struct && !isTime(v):
		for _, fld := range fieldsOf(v.Type()) {
			fmt.Fprintf(f.w, "%s%s: %v\n", indent, formatHeader(fld.key), f.formatValue(v.Field(fld.index)))
		}
	case v.Kind() == reflect.Map && v.Type().Key().Kind() == reflect.String:
		for _, key := range sortedKeys(v) {
			fmt.Fprintf(f.w, "%s%s: %v\n", indent, formatHeader(key), f.formatValue(v.MapIndex(reflect.ValueOf(key).Convert(v.Type().Key()))))
		}
	default:
		fmt.Fprintf(f.w, "%s%v\n", indent, f.formatValue(v))
	}
}

// formatValue formats a value for display
func (f *TextFormatter) formatValue(v reflect.Value) any {
	v = indirect(v)
	if !v.IsValid() {
		return "N/A"
	}

	switch val := v.Interface().(type) {
	case time.Time:
		return val.Format(time.RFC3339)
	case []string:
		return strings.Join(val, "; ")
	default:
		return val
	}
}

func isRecord(v reflect.Value) bool {
	return (v.Kind() == reflect.Struct && !isTime(v)) || v.Kind() == reflect.Map
}

func isTime(v reflect.Value) bool {
	_, ok := v.Interface().(time.Time)
	return ok
}
