package main

import (
	"testing"

	"github.com/dekarrin/remora/server"
	"github.com/stretchr/testify/assert"
)

func Test_tokenSecret(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		expectLen int
		expectNil bool
		expectErr bool
	}{
		{name: "empty", input: "", expectNil: true},
		{name: "short is repeated", input: "abc", expectLen: 48},
		{name: "exact minimum", input: "0123456789abcdef0123456789abcdef", expectLen: 32},
		{name: "too long", input: string(make([]byte, server.MaxSecretSize+1)), expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			actual, err := tokenSecret(tc.input)
			if tc.expectErr {
				assert.Error(err)
				return
			}
			assert.NoError(err)
			if tc.expectNil {
				assert.Nil(actual)
				return
			}
			assert.Len(actual, tc.expectLen)
			assert.Equal(tc.input, string(actual[:len(tc.input)]))
		})
	}
}
