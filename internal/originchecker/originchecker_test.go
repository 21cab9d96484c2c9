package originchecker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck(t *testing.T) {
	checker, err := New()
	require.NoError(t, err)

	tests := []struct {
		origin string
		want   bool
	}{
		{origin: "http://localhost:3000", want: true},
		{origin: "http://LOCALHOST", want: true},
		{origin: "https://127.0.0.1:8443", want: true},
		{origin: "http://example.com", want: false},
		{origin: "http://localhost.example.com", want: false},
		{origin: "http://127.0.0.2", want: false},
		{origin: "null", want: false},
		{origin: "", want: false},
		{origin: "://bad", want: false},
	}

	for _, test := range tests {
		t.Run(test.origin, func(t *testing.T) {
			assert.Equal(t, test.want, checker.Check(test.origin))
			assert.Equal(t, test.want, checker.AllowOriginFunc(nil, test.origin))
		})
	}
}

func TestNew(t *testing.T) {
	checker, err := New("library.local")
	require.NoError(t, err)
	assert.True(t, checker.Check("http://library.local:8080"))
	assert.False(t, checker.Check("http://localhost"))

	_, err = New("localhost:3000")
	assert.Error(t, err)

	_, err = New("")
	assert.Error(t, err)
}
