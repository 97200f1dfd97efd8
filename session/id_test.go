package session

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewID(t *testing.T) {
	a := NewID(PrefixNormal)
	b := NewID(PrefixNormal)

	assert.True(t, strings.HasPrefix(a, PrefixNormal))
	assert.Len(t, a, len(PrefixNormal)+32)
	assert.NotEqual(t, a, b)
	assert.NoError(t, ValidateID(a))
	assert.True(t, strings.HasPrefix(NewID(PrefixCombined), PrefixCombined))
}

func TestValidateID(t *testing.T) {
	tests := []struct {
		id    string
		valid bool
	}{
		{"img_0123abcd", true},
		{"combined_x.y-z", true},
		{"", false},
		{".", false},
		{"..", false},
		{"../x", false},
		{"a/b", false},
		{"a b", false},
		{"img_%00", false},
		{strings.Repeat("a", maxIDLength+1), false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			err := ValidateID(tt.id)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidID)
			}
		})
	}
}

func TestFilterValidIDs(t *testing.T) {
	got := FilterValidIDs([]string{"img_a", "../etc", "img_b", "img_a", " img_c ", ""})
	assert.Equal(t, []string{"img_a", "img_b", "img_c"}, got)
}
