package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanMarkdownWrapper(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "bare object", in: `{"a":1}`, want: `{"a":1}`},
		{name: "json fence", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "plain fence", in: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "surrounding whitespace", in: "\n\n  {\"a\":1}  \n", want: `{"a":1}`},
		{name: "leading prose", in: "Here is the estimate:\n{\"a\":{\"b\":2}}\nHope this helps.", want: `{"a":{"b":2}}`},
		{name: "fence with prose", in: "Sure!\n```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "no json", in: "  I cannot help with that.  ", want: "I cannot help with that."},
		{name: "empty", in: "", want: ""},
		{name: "truncated", in: "```json\n{\"a\":", want: `{"a":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanMarkdownWrapper(tt.in))
		})
	}
}
