package format

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/fraudcheck/cli/internal/config"
	"github.com/fraudcheck/cli/internal/models"
)

var out io.Writer = os.Stdout

// SetOutput redirects everything this package prints. The returned
// function restores the previous writer.
func SetOutput(w io.Writer) (restore func()) {
	prev := out
	out = w
	return func() { out = prev }
}

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) error
}

// GetFormatter returns a formatter based on the specified format
func GetFormatter(format string) (Formatter, error) {
	useColors := config.Get().Format.Colors

	switch format {
	case "table":
		return NewTableFormatter(out, useColors), nil
	case "json":
		return NewJSONFormatter(out, true), nil
	case "json-compact":
		return NewJSONFormatter(out, false), nil
	case "yaml":
		return NewYAMLFormatter(out), nil
	case "text":
		return NewTextFormatter(out), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// Print formats and prints data using the configured output format
func Print(data any) error {
	formatter, err := GetFormatter(config.GetOutputFormat())
	if err != nil {
		return err
	}
	return formatter.Format(data)
}

// PrintSuccess prints a success message
func PrintSuccess(message string, args ...any) {
	printLine(color.FgGreen, "", message, args...)
}

// PrintError prints an error message
func PrintError(message string, args ...any) {
	printLine(color.FgRed, "Error: ", message, args...)
}

// PrintWarning prints a warning message
func PrintWarning(message string, args ...any) {
	printLine(color.FgYellow, "Warning: ", message, args...)
}

// PrintInfo prints an info message
func PrintInfo(message string, args ...any) {
	printLine(color.FgBlue, "Info: ", message, args...)
}

// PrintDebug prints a debug message if debug mode is enabled
func PrintDebug(message string, args ...any) {
	if config.IsDebug() {
		printLine(color.FgCyan, "", "[DEBUG] "+message, args...)
	}
}

func printLine(attr color.Attribute, plainPrefix, message string, args ...any) {
	if config.Get().Format.Colors {
		_, _ = color.New(attr).Fprintf(out, message+"\n", args...)
		return
	}
	fmt.Fprintf(out, plainPrefix+message+"\n", args...)
}

var riskColors = map[string]*color.Color{
	models.RiskLow:      color.New(color.FgGreen),
	models.RiskMedium:   color.New(color.FgYellow),
	models.RiskHigh:     color.New(color.FgRed),
	models.RiskCritical: color.New(color.FgHiRed, color.Bold),
}

// RiskLevel renders a risk level, coloured when colours are on
func RiskLevel(level string, useColors bool) string {
	c, ok := riskColors[level]
	if !useColors || !ok {
		return level
	}
	return c.Sprint(level)
}

// field is an exported struct field with its display key
type field struct {
	index int
	key   string
}

// fieldsOf lists the exported fields of t keyed by their JSON names
func fieldsOf(t reflect.Type) []field {
	fields := make([]field, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		key := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if key == "-" {
			continue
		}
		if key == "" {
			key = f.Name
		}
		fields = append(fields, field{index: i, key: key})
	}
	return fields
}

// sortedKeys returns the keys of a string-keyed map in order
func sortedKeys(v reflect.Value) []string {
	keys := make([]string, 0, v.Len())
	for _, k := range v.MapKeys() {
		keys = append(keys, fmt.Sprint(k.Interface()))
	}
	sort.Strings(keys)
	return keys
}

// indirect follows pointers and interfaces down to a concrete value
func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

// formatHeader converts snake_case to Title Case
func formatHeader(header string) string {
	words := strings.Split(header, "_")
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
		}
	}
	return strings.Join(words, " ")
}
