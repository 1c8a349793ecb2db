package token

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToken_Expired(t *testing.T) {
	exp := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tok := &Token{ExpiresAt: exp}

	assert.False(t, tok.Expired(exp.Add(-time.Second)))
	assert.False(t, tok.Expired(exp))
	assert.True(t, tok.Expired(exp.Add(time.Nanosecond)))
}

func TestCheckName(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{in: "abcde", ok: true},
		{in: "my laptop", ok: true},
		{in: strings.Repeat("n", 40), ok: true},
		{in: "abcd"},
		{in: strings.Repeat("n", 41)},
		{in: "tab\tname"},
		{in: "a/b/c/d"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ok, CheckName(tt.in) == "", tt.in)
	}
}
