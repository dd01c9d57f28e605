package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "script removed", input: `Jazz <script>alert(1)</script>night`, want: "Jazz night"},
		{name: "tags stripped", input: `<b>Tech</b> talk`, want: "Tech talk"},
		{name: "trimmed", input: "  Meetup  ", want: "Meetup"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.input))
		})
	}
}

func TestHTMLKeepsFormatting(t *testing.T) {
	out := HTML(`<p onclick="x()">Hello <strong>world</strong></p><iframe src="evil"></iframe>`)
	assert.Equal(t, "<p>Hello <strong>world</strong></p>", out)
}
