package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name string
		argv []string
		want map[string]string
	}{
		{
			name: "command with equals flags",
			argv: []string{"process", "--folder=/tmp/in", "--max-size=800"},
			want: map[string]string{"command": "process", "folder": "/tmp/in", "max-size": "800"},
		},
		{
			name: "space separated value and boolean flag",
			argv: []string{"--debug", "merge", "--sessions", "a,b"},
			want: map[string]string{"command": "merge", "debug": "true", "sessions": "a,b"},
		},
		{
			name: "trailing boolean",
			argv: []string{"serve", "--debug"},
			want: map[string]string{"command": "serve", "debug": "true"},
		},
		{
			name: "flag before command does not swallow it",
			argv: []string{"--progressive", "process", "--folder=x"},
			want: map[string]string{"command": "process", "progressive": "true", "folder": "x"},
		},
		{
			name: "no command",
			argv: []string{"--folder=x"},
			want: map[string]string{"folder": "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseArgs(tt.argv))
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SplitList("a, b,,c ,"))
	assert.Nil(t, SplitList(""))
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "0 B", FormatFileSize(0))
	assert.Equal(t, "0 B", FormatFileSize(-5))
	assert.Equal(t, "1.0 KiB", FormatFileSize(1024))
	assert.Equal(t, "1.5 MiB", FormatFileSize(1536*1024))
}
