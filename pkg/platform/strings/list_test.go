package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", []string{}},
		{"only separators", " , ,", []string{}},
		{"trims and dedupes in order", " b, a ,b,, c", []string{"b", "a", "c"}},
		{"keeps case", "A,a", []string{"A", "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitList(tt.input))
		})
	}
}

func TestSplitListLower(t *testing.T) {
	got := SplitListLower("0xABC, 0xabc ,0xDef")
	assert.Equal(t, []string{"0xabc", "0xdef"}, got)
}
