package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dekarrin/remora/internal/gen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, files map[string]string) string {
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

const header = "format = \"REMORA\"\ntype = \"OPTIONS\"\n"

func Test_ScanFileInfo(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		expect    FileInfo
		expectErr bool
	}{
		{
			name:   "header only",
			input:  header,
			expect: FileInfo{Format: "REMORA", Type: "OPTIONS"},
		},
		{
			name:   "stops at first table",
			input:  header + "\n[junk]\nthis is = = not toml",
			expect: FileInfo{Format: "REMORA", Type: "OPTIONS"},
		},
		{
			name:   "missing header",
			input:  "package = \"x\"\n",
			expect: FileInfo{},
		},
		{
			name:      "not toml",
			input:     "format = = 2",
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			actual, err := ScanFileInfo([]byte(tc.input))

			if tc.expectErr {
				assert.Error(err)
				return
			}
			assert.NoError(err)
			assert.Equal(tc.expect, actual)
		})
	}
}

func Test_ParseOptions(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		expect    func() gen.Options
		expectErr bool
	}{
		{
			name:   "defaults",
			input:  header,
			expect: gen.Defaults,
		},
		{
			name: "every key",
			input: header +
				"backtrack = true\n" +
				"entry = \"expr\"\n" +
				"package = \"calc\"\n" +
				"whitespace = '[ \\t]*'\n" +
				"func_prefix = \"parse\"\n" +
				"func_suffix = \"Rule\"\n" +
				"rule_prefix = \"// begin\"\n" +
				"rule_suffix = \"// end\"\n" +
				"code_prefix = \"{\"\n" +
				"code_suffix = \"}\"\n" +
				"template = \"package {{.Package}}\"\n",
			expect: func() gen.Options {
				return gen.Options{
					Backtrack:  true,
					Entry:      "expr",
					Package:    "calc",
					Whitespace: `[ \t]*`,
					FuncPrefix: "parse",
					FuncSuffix: "Rule",
					RulePrefix: "// begin",
					RuleSuffix: "// end",
					CodePrefix: "{",
					CodeSuffix: "}",
					Template:   "package {{.Package}}",
				}
			},
		},
		{
			name:   "empty whitespace disables it",
			input:  header + "whitespace = ''\n",
			expect: func() gen.Options { o := gen.Defaults(); o.Whitespace = ""; return o },
		},
		{
			name:      "bad header",
			input:     "format = \"TUNA\"\ntype = \"OPTIONS\"\n",
			expectErr: true,
		},
		{
			name:      "unknown key",
			input:     header + "backtracking = true\n",
			expectErr: true,
		},
		{
			name:      "wrong type",
			input:     header + "backtrack = \"yes\"\n",
			expectErr: true,
		},
		{
			name:      "invalid option",
			input:     header + "package = \"not valid\"\n",
			expectErr: true,
		},
		{
			name:      "extends",
			input:     header + "extends = \"base.toml\"\n",
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			actual, err := ParseOptions([]byte(tc.input), ".")

			if tc.expectErr {
				assert.Error(err)
				return
			}
			assert.NoError(err)
			assert.Equal(tc.expect(), actual)
		})
	}
}

func Test_LoadOptionsFile(t *testing.T) {
	assert := assert.New(t)
	dir := writeFiles(t, map[string]string{
		"base.toml":            header + "package = \"base\"\nbacktrack = true\nfunc_prefix = \"p\"\n",
		"sub/opts.toml":        header + "extends = \"../base.toml\"\npackage = \"sub\"\ntemplate_file = \"tmpl/parser.tmpl\"\n",
		"sub/tmpl/parser.tmpl": "package {{.Package}}\n{{.Rules}}",
	})

	opts, err := LoadOptionsFile(filepath.Join(dir, "sub", "opts.toml"))

	require.NoError(t, err)
	assert.Equal("sub", opts.Package)
	assert.True(opts.Backtrack)
	assert.Equal("p", opts.FuncPrefix)
	assert.Equal(gen.DefaultWhitespace, opts.Whitespace)
	assert.Equal("package {{.Package}}\n{{.Rules}}", opts.Template)
}

func Test_LoadOptionsFile_Errors(t *testing.T) {
	testCases := []struct {
		name      string
		files     map[string]string
		load      string
		expectIs  error
		expectErr bool
	}{
		{
			name: "circular",
			files: map[string]string{
				"a.toml": header + "extends = \"b.toml\"\n",
				"b.toml": header + "extends = \"a.toml\"\n",
			},
			load:     "a.toml",
			expectIs: ErrExtendsCircular,
		},
		{
			name: "self",
			files: map[string]string{
				"a.toml": header + "extends = \"./a.toml\"\n",
			},
			load:     "a.toml",
			expectIs: ErrExtendsCircular,
		},
		{
			name: "missing extended file",
			files: map[string]string{
				"a.toml": header + "extends = \"nope.toml\"\n",
			},
			load:      "a.toml",
			expectErr: true,
		},
		{
			name: "template and template_file",
			files: map[string]string{
				"a.toml": header + "template = \"x\"\ntemplate_file = \"t\"\n",
				"t":      "y",
			},
			load:      "a.toml",
			expectErr: true,
		},
		{
			name: "bad header in extended file",
			files: map[string]string{
				"a.toml": header + "extends = \"b.toml\"\n",
				"b.toml": "format = \"REMORA\"\n",
			},
			load:     "a.toml",
			expectIs: ErrBadHeader,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)
			dir := writeFiles(t, tc.files)

			_, err := LoadOptionsFile(filepath.Join(dir, tc.load))

			if !assert.Error(err) {
				return
			}
			if tc.expectIs != nil {
				assert.ErrorIs(err, tc.expectIs)
			}
		})
	}
}

func Test_LoadOptionsFile_TooDeep(t *testing.T) {
	files := map[string]string{}
	for i := 0; i <= MaxExtendsDepth; i++ {
		files[filepath.Join("d", string(rune('a'+i))+".toml")] = header + "extends = \"" + string(rune('a'+i+1)) + ".toml\"\n"
	}
	files[filepath.Join("d", string(rune('a'+MaxExtendsDepth+1))+".toml")] = header
	dir := writeFiles(t, files)

	_, err := LoadOptionsFile(filepath.Join(dir, "d", "a.toml"))

	assert.ErrorIs(t, err, ErrExtendsTooDeep)
}

func Test_EncodeOptions(t *testing.T) {
	assert := assert.New(t)
	opts := gen.Defaults()
	opts.Backtrack = true
	opts.Entry = "start"
	opts.Template = "package {{.Package}}\n"

	data, err := EncodeOptions(opts)
	require.NoError(t, err)

	actual, err := ParseOptions(data, ".")
	require.NoError(t, err)
	assert.Equal(opts, actual)
}
