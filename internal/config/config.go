// Package config loads generator options from option files, a TOML-based
// format. Every option file starts with the header
//
//	format = "REMORA"
//	type = "OPTIONS"
//
// followed by any of the keys backtrack, entry, package, whitespace,
// func_prefix, func_suffix, rule_prefix, rule_suffix, code_prefix,
// code_suffix, template and template_file. An option file may name another
// option file in an "extends" key; the options of the named file are loaded
// first and the extending file's keys override them.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/BurntSushi/toml"
	"github.com/dekarrin/remora/internal/gen"
)

// MaxExtendsDepth is the longest chain of option files extending each other
// that will be followed.
const MaxExtendsDepth = 16

var (
	// ErrExtendsTooDeep is returned when a chain of extends keys is longer
	// than MaxExtendsDepth.
	ErrExtendsTooDeep = errors.New("too many option files deep")

	// ErrExtendsCircular is returned when an option file extends itself,
	// directly or through other files.
	ErrExtendsCircular = errors.New("extends chain refers back to itself")

	// ErrBadHeader is returned when a file does not have the option file
	// header.
	ErrBadHeader = errors.New(`file must start with format = "REMORA" and type = "OPTIONS"`)
)

// FileInfo contains the essential information all remora TOML files must
// contain. It can be obtained from a file by reading it into memory and
// calling ScanFileInfo on the bytes.
type FileInfo struct {
	Format string `toml:"format"`
	Type   string `toml:"type"`
}

// ScanFileInfo takes the given data bytes and attempts to read the common
// header info from it. The bytes are read up to the first table header and
// only those bytes are parsed for the info.
func ScanFileInfo(data []byte) (FileInfo, error) {
	// only run the toml parser up to the end of the top-level table
	var topLevelEnd int = -1
	var onNewLine bool
	for b := range data {
		if onNewLine {
			if data[b] == '[' {
				topLevelEnd = b
				break
			}
		}

		if data[b] == '\n' {
			onNewLine = true
		} else if !unicode.IsSpace(rune(data[b])) {
			onNewLine = false
		}
	}

	scanData := data
	if topLevelEnd != -1 {
		scanData = data[:topLevelEnd]
	}

	var info FileInfo
	err := toml.Unmarshal(scanData, &info)
	return info, err
}

// LoadOptionsFile loads generator options from the option file at path.
// Options not set in the file or anything it extends keep their values from
// gen.Defaults. The result is validated.
func LoadOptionsFile(path string) (gen.Options, error) {
	opts, err := recursiveLoad(path, nil)
	if err != nil {
		return gen.Options{}, err
	}

	if err := opts.Validate(); err != nil {
		return gen.Options{}, fmt.Errorf("%q: %w", path, err)
	}
	return opts, nil
}

// ParseOptions reads generator options from the bytes of an option file.
// A template_file key is resolved relative to dir. The file may not use
// extends.
func ParseOptions(data []byte, dir string) (gen.Options, error) {
	top, err := unmarshalOptions(data)
	if err != nil {
		return gen.Options{}, err
	}
	if top.Extends != "" {
		return gen.Options{}, errors.New("extends cannot be used here")
	}

	opts := gen.Defaults()
	if err := top.apply(&opts, dir); err != nil {
		return gen.Options{}, err
	}
	if err := opts.Validate(); err != nil {
		return gen.Options{}, err
	}
	return opts, nil
}

// EncodeOptions gives the option file that sets every option to its value in
// opts.
func EncodeOptions(opts gen.Options) ([]byte, error) {
	top := fromOptions(opts)

	var sb strings.Builder
	if err := toml.NewEncoder(&sb).Encode(top); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}

// recursiveLoad loads the options of the file at path, following its extends
// key. stack holds the files that extend it.
func recursiveLoad(path string, stack []string) (gen.Options, error) {
	path = filepath.Clean(path)

	if len(stack) >= MaxExtendsDepth {
		return gen.Options{}, fmt.Errorf("option file %q: %w", path, ErrExtendsTooDeep)
	}
	for i := range stack {
		if stack[i] == path {
			return gen.Options{}, fmt.Errorf("option file %q: %w", path, ErrExtendsCircular)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return gen.Options{}, fmt.Errorf("%q: reading from disk: %w", path, err)
	}

	top, err := unmarshalOptions(data)
	if err != nil {
		return gen.Options{}, fmt.Errorf("option file %q: %w", path, err)
	}

	dir := filepath.Dir(path)
	opts := gen.Defaults()
	if top.Extends != "" {
		subStack := make([]string, len(stack)+1)
		copy(subStack, stack)
		subStack[len(subStack)-1] = path

		opts, err = recursiveLoad(filepath.Join(dir, top.Extends), subStack)
		if err != nil {
			return gen.Options{}, fmt.Errorf("in file extended by option file %q:\n    %w", path, err)
		}
	}

	if err := top.apply(&opts, dir); err != nil {
		return gen.Options{}, fmt.Errorf("option file %q: %w", path, err)
	}
	return opts, nil
}

// unmarshalOptions unmarshals an option file from the given bytes and checks
// its header.
func unmarshalOptions(tomlData []byte) (topLevelOptions, error) {
	info, err := ScanFileInfo(tomlData)
	if err != nil {
		return topLevelOptions{}, fmt.Errorf("detecting file type: %w", err)
	}
	if strings.ToUpper(info.Format) != "REMORA" || strings.ToUpper(info.Type) != "OPTIONS" {
		return topLevelOptions{}, ErrBadHeader
	}

	var top topLevelOptions
	md, err := toml.Decode(string(tomlData), &top)
	if err != nil {
		return top, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i := range undecoded {
			keys[i] = undecoded[i].String()
		}
		return top, fmt.Errorf("unknown key(s): %s", strings.Join(keys, ", "))
	}

	return top, nil
}
