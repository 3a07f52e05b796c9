package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"already clean", "Vegan", "Vegan"},
		{"trims whitespace", "  Vegan  ", "Vegan"},
		{"collapses inner whitespace", "Sea   Salt", "Sea Salt"},
		{"tabs and newlines", "Sea\tSalt\n", "Sea Salt"},
		{"empty", "", ""},
		{"only whitespace", "   \t\n", ""},
		{"preserves case", "VEGAN", "VEGAN"},
		{"unicode preserved", "Jalapeño", "Jalapeño"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Name(tt.input))
		})
	}
}

func TestName_ComposesNFC(t *testing.T) {
	// "n" + combining tilde (U+0303) composes to "ñ" (U+00F1).
	decomposed := "Jalapen\u0303o"
	composed := "Jalape\u00f1o"

	assert.Equal(t, composed, Name(decomposed))
	assert.Equal(t, Name(composed), Name(decomposed))
}
