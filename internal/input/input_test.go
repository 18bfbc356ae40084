package input

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_DirectReader_ReadLine(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		expect []string
	}{
		{name: "empty", input: "", expect: nil},
		{name: "one line no newline", input: "abc", expect: []string{"abc"}},
		{name: "blank lines skipped", input: "\n  \nabc\n\n\tdef  \n", expect: []string{"abc", "def"}},
		{name: "crlf", input: "a\r\nb\r\n", expect: []string{"a", "b"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)
			r := NewDirectReader(strings.NewReader(tc.input))
			defer r.Close()

			var actual []string
			for {
				line, err := r.ReadLine()
				if err == io.EOF {
					break
				}
				if !assert.NoError(err) {
					return
				}
				actual = append(actual, line)
			}

			assert.Equal(tc.expect, actual)
		})
	}
}
