package configreader

import (
	"encoding"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"

	"fknsrs.biz/p/ytinfo/internal/stringutil"
)

// Read fills out, a pointer to a struct, from a config file, then
// command-line flags, then environment variables; later sources win.
//
// Fields are named by their "name" tag, or the snake_case of the field
// name. A field tagged name:"-" is ignored. The config file is named by the
// "config" parameter and must be .toml, .yaml or .yml; unknown keys in it
// are an error. Environment variables match the parameter name in any case,
// optionally prefixed with the program name ("YTINFO_LOG_LEVEL" beats
// "LOG_LEVEL").
func Read(program string, arguments, environment []string, out interface{}) error {
	fields, err := getFields(out)
	if err != nil {
		return fmt.Errorf("configreader.Read: %w", err)
	}

	prefix := environmentPrefix(program)

	if configPath, ok := findConfigPath(arguments, environment, prefix, fields); ok && configPath != "" {
		if err := readFile(configPath, out); err != nil {
			return fmt.Errorf("configreader.Read: %w", err)
		}
	}

	if err := readArguments(program, arguments, fields); err != nil {
		return fmt.Errorf("configreader.Read: could not read command-line flags: %w", err)
	}

	if err := readEnvironment(environment, prefix, fields); err != nil {
		return fmt.Errorf("configreader.Read: could not read environment variables: %w", err)
	}

	return nil
}

type encodingText interface {
	encoding.TextMarshaler
	encoding.TextUnmarshaler
}

var (
	stringType       = reflect.TypeOf("")
	boolType         = reflect.TypeOf(true)
	intType          = reflect.TypeOf(int(0))
	encodingTextType = reflect.TypeOf((*encodingText)(nil)).Elem()
)

type field struct {
	value  reflect.Value
	source reflect.StructField
	name   string
	help   string
}

func (f field) isText() bool {
	return reflect.PointerTo(f.source.Type).Implements(encodingTextType)
}

// text renders the current value the way it would be written as a flag.
func (f field) text() (string, bool) {
	switch {
	case f.source.Type == stringType:
		return f.value.String(), true
	case f.isText():
		d, err := f.value.Addr().Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return "", false
		}
		return string(d), true
	default:
		return "", false
	}
}

func (f field) set(s string) error {
	switch {
	case f.source.Type == stringType:
		f.value.SetString(s)
	case f.source.Type == boolType:
		f.value.SetBool(stringutil.LooksTrue(strings.TrimSpace(s)))
	case f.source.Type == intType:
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("could not parse parameter %s (%s) as integer: %w", f.source.Name, f.name, err)
		}
		f.value.SetInt(int64(n))
	case f.isText():
		if err := f.value.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
			return fmt.Errorf("could not unmarshal parameter %s (%s): %w", f.source.Name, f.name, err)
		}
	default:
		return fmt.Errorf("could not read parameter %s (%s) of type %s", f.source.Name, f.name, f.source.Type)
	}

	return nil
}

func getFields(out interface{}) ([]field, error) {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return nil, fmt.Errorf("configreader.getFields: value must be a non-nil pointer; was instead %T", out)
	}

	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("configreader.getFields: value must be a pointer to a struct; was instead %T", out)
	}

	typ := rv.Type()

	var fields []field
	for i := 0; i < typ.NumField(); i++ {
		sf := typ.Field(i)
		if !sf.IsExported() {
			continue
		}

		name := sf.Tag.Get("name")
		if name == "" {
			name = stringutil.PascalToSnake(sf.Name)
		}
		if name == "-" {
			continue
		}

		fields = append(fields, field{
			value:  rv.Field(i),
			source: sf,
			name:   name,
			help:   sf.Tag.Get("help"),
		})
	}

	return fields, nil
}

// environmentPrefix turns "/usr/bin/yt-info" into "YT_INFO_".
func environmentPrefix(program string) string {
	base := strings.TrimSuffix(filepath.Base(program), filepath.Ext(program))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return ""
	}

	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, base) + "_"
}

func findConfigPath(arguments, environment []string, prefix string, fields []field) (string, bool) {
	if s, ok := getFromArguments(arguments, "config"); ok {
		return s, true
	}

	if s, ok := getFromEnvironment(environment, prefix, "config"); ok {
		return s, true
	}

	for _, f := range fields {
		if f.name == "config" {
			return f.text()
		}
	}

	return "", false
}

func getFromArguments(arguments []string, name string) (string, bool) {
	for i := 0; i < len(arguments); i++ {
		if arguments[i] == "--" {
			break
		}

		flagName := strings.TrimPrefix(strings.TrimPrefix(arguments[i], "-"), "-")
		if flagName == arguments[i] {
			continue
		}

		if flagName == name && i+1 < len(arguments) {
			return arguments[i+1], true
		}

		if v, ok := strings.CutPrefix(flagName, name+"="); ok {
			return v, true
		}
	}

	return "", false
}

func lookupEnvironment(environment []string, name string) (string, bool) {
	want := strings.ToLower(name) + "="

	for _, e := range environment {
		if len(e) >= len(want) && strings.ToLower(e[:len(want)]) == want {
			return e[len(want):], true
		}
	}

	return "", false
}

func getFromEnvironment(environment []string, prefix, name string) (string, bool) {
	if prefix != "" {
		if v, ok := lookupEnvironment(environment, prefix+name); ok {
			return v, true
		}
	}

	return lookupEnvironment(environment, name)
}

func readFile(filePath string, out interface{}) error {
	var decode func(fd *os.File) error

	switch filepath.Ext(filePath) {
	case ".yaml", ".yml":
		decode = func(fd *os.File) error {
			dec := yaml.NewDecoder(fd)
			dec.KnownFields(true)
			return dec.Decode(out)
		}
	case ".toml":
		decode = func(fd *os.File) error {
			return toml.NewDecoder(fd).Strict(true).Decode(out)
		}
	default:
		return fmt.Errorf("configreader.readFile: could not determine file type for %q", filePath)
	}

	fd, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("configreader.readFile: could not open config file: %w", err)
	}
	defer fd.Close()

	if err := decode(fd); err != nil {
		return fmt.Errorf("configreader.readFile: could not parse %q: %w", filePath, err)
	}

	return nil
}

func readArguments(program string, arguments []string, fields []field) error {
	flagSet := flag.NewFlagSet(program, flag.ContinueOnError)

	flagSet.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n", program)
		flagSet.PrintDefaults()
		os.Exit(0)
	}

	for _, f := range fields {
		ptr := f.value.Addr().Interface()

		switch {
		case f.source.Type == stringType:
			flagSet.StringVar(ptr.(*string), f.name, f.value.String(), f.help)
		case f.source.Type == boolType:
			flagSet.BoolVar(ptr.(*bool), f.name, f.value.Bool(), f.help)
		case f.source.Type == intType:
			flagSet.IntVar(ptr.(*int), f.name, int(f.value.Int()), f.help)
		case f.isText():
			flagSet.TextVar(ptr.(encoding.TextUnmarshaler), f.name, ptr.(encoding.TextMarshaler), f.help)
		default:
			return fmt.Errorf("configreader.readArguments: could not define flag for parameter %s (%s) with type %s", f.source.Name, f.name, f.source.Type)
		}
	}

	return flagSet.Parse(arguments)
}

func readEnvironment(environment []string, prefix string, fields []field) error {
	for _, f := range fields {
		v, ok := getFromEnvironment(environment, prefix, f.name)
		if !ok {
			continue
		}

		if err := f.set(v); err != nil {
			return fmt.Errorf("configreader.readEnvironment: %w", err)
		}
	}

	return nil
}
