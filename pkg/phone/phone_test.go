package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{name: "formatted international", raw: "+7 (700) 123-45-67", expected: "77001234567"},
		{name: "domestic prefix rewritten", raw: "8 (700) 123-45-67", expected: "77001234567"},
		{name: "already normalized", raw: "77001234567", expected: "77001234567"},
		{name: "dots and spaces", raw: "700.123.45.67", expected: "7001234567"},
		{name: "short number keeps leading eight", raw: "8123", expected: "8123"},
		{name: "no digits", raw: "john smith", expected: ""},
		{name: "empty", raw: "", expected: ""},
		{name: "digits embedded in text", raw: "call +7 700 1234567 now", expected: "77001234567"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.raw))
		})
	}
}
