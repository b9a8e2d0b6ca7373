package format

import (
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

const timeLayout = "2006-01-02 15:04:05"

// TableFormatter handles table output formatting
type TableFormatter struct {
	w         io.Writer
	useColors bool
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(w io.Writer, useColors bool) *TableFormatter {
	return &TableFormatter{
		w:         w,
		useColors: useColors,
	}
}

// Format formats data as a table. Structs and maps print as a property
// list, slices of structs or maps as one row per element.
func (f *TableFormatter) Format(data any) error {
	v := indirect(reflect.ValueOf(data))
	if !v.IsValid() {
		fmt.Fprintln(f.w, "No data to display")
		return nil
	}

	switch v.Kind() {
	case reflect.Struct:
		if _, ok := v.Interface().(time.Time); !ok {
			return f.formatStruct(v)
		}
	case reflect.Map:
		if v.Type().Key().Kind() == reflect.String {
			return f.formatMap(v)
		}
	case reflect.Slice, reflect.Array:
		return f.formatSlice(v)
	}

	fmt.Fprintln(f.w, f.formatValue("", v.Interface()))
	return nil
}

// formatStruct formats a struct as a vertical table
func (f *TableFormatter) formatStruct(v reflect.Value) error {
	table := f.newTable([]string{"Field", "Value"})

	for _, fld := range fieldsOf(v.Type()) {
		table.Append([]string{
			formatHeader(fld.key),
			f.formatValue(fld.key, v.Field(fld.index).Interface()),
		})
	}

	table.Render()
	return nil
}

// formatMap formats a map as a vertical table
func (f *TableFormatter) formatMap(v reflect.Value) error {
	table := f.newTable([]string{"Property", "Value"})

	for _, key := range sortedKeys(v) {
		table.Append([]string{
			formatHeader(key),
			f.formatValue(key, v.MapIndex(reflect.ValueOf(key).Convert(v.Type().Key())).Interface()),
		})
	}

	table.Render()
	return nil
}

// formatSlice formats a slice with one row per element
func (f *TableFormatter) formatSlice(v reflect.Value) error {
	if v.Len() == 0 {
		fmt.Fprintln(f.w, "No data to display")
		return nil
	}

	first := indirect(v.Index(0))
	switch {
	case first.Kind() == reflect.Struct:
		return f.formatStructRows(v, first.Type())
	case first.Kind() == reflect.Map && first.Type().Key().Kind() == reflect.String:
		return f.formatMapRows(v, first)
	}

	table := f.newTable([]string{"Value"})
	for i := 0; i < v.Len(); i++ {
		table.Append([]string{f.formatValue("", v.Index(i).Interface())})
	}
	table.Render()
	return nil
}

func (f *TableFormatter) formatStructRows(v reflect.Value, t reflect.Type) error {
	fields := fieldsOf(t)
	// nested collections do not fit in a cell
	columns := make([]field, 0, len(fields))
	for _, fld := range fields {
		switch indirectType(t.Field(fld.index).Type).Kind() {
		case reflect.Slice, reflect.Map:
			continue
		}
		columns = append(columns, fld)
	}

	headers := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = formatHeader(c.key)
	}
	table := f.newTable(headers)

	for i := 0; i < v.Len(); i++ {
		row := indirect(v.Index(i))
		values := make([]string, len(columns))
		if row.IsValid() {
			for j, c := range columns {
				values[j] = f.formatValue(c.key, row.Field(c.index).Interface())
			}
		}
		table.Append(values)
	}

	table.Render()
	return nil
}

func (f *TableFormatter) formatMapRows(v reflect.Value, first reflect.Value) error {
	keys := sortedKeys(first)
	headers := make([]string, len(keys))
	for i, k := range keys {
		headers[i] = formatHeader(k)
	}
	table := f.newTable(headers)

	for i := 0; i < v.Len(); i++ {
		row := indirect(v.Index(i))
		values := make([]string, len(keys))
		for j, k := range keys {
			if !row.IsValid() {
				continue
			}
			if cell := row.MapIndex(reflect.ValueOf(k)); cell.IsValid() {
				values[j] = f.formatValue(k, cell.Interface())
			}
		}
		table.Append(values)
	}

	table.Render()
	return nil
}

func (f *TableFormatter) newTable(headers []string) *tablewriter.Table {
	table := tablewriter.NewWriter(f.w)
	table.SetHeader(headers)
	f.configureTable(table, len(headers))
	return table
}

// configureTable sets up table appearance
func (f *TableFormatter) configureTable(table *tablewriter.Table, columns int) {
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)

	if f.useColors {
		// one entry per column or tablewriter panics
		colors := make([]tablewriter.Colors, columns)
		for i := range colors {
			colors[i] = tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiBlueColor}
		}
		table.SetHeaderColor(colors...)
	}
}

// formatValue formats a value for display. key is the JSON name of the
// field the value came from, if any.
func (f *TableFormatter) formatValue(key string, value any) string {
	v := indirect(reflect.ValueOf(value))
	if !v.IsValid() {
		return ""
	}
	value = v.Interface()

	switch val := value.(type) {
	case string:
		if key == "risk_level" {
			return RiskLevel(val, f.useColors)
		}
		return val
	case time.Time:
		if val.IsZero() {
			return ""
		}
		return val.Local().Format(timeLayout)
	case fmt.Stringer:
		return val.String()
	case float32, float64:
		return fmt.Sprintf("%.2f", val)
	case bool:
		if f.useColors {
			if val {
				return color.GreenString("true")
			}
			return color.RedString("false")
		}
		return strconv.FormatBool(val)
	case []string:
		return strings.Join(val, "; ")
	}

	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			break
		}
		parts := make([]string, 0, v.Len())
		for _, k := range sortedKeys(v) {
			parts = append(parts, k+"="+f.formatValue("", v.MapIndex(reflect.ValueOf(k).Convert(v.Type().Key())).Interface()))
		}
		return strings.Join(parts, ", ")
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	}
	return fmt.Sprintf("%v", value)
}

func indirectType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}
