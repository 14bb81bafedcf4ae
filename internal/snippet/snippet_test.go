package snippet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender_Placeholder(t *testing.T) {
	out := Render("")

	assert.Contains(t, out, "accessToken: 'YOUR_ACCESS_TOKEN'")
	assert.True(t, strings.HasPrefix(out, "<!-- Add this to your HTML -->"))
	assert.True(t, strings.HasSuffix(out, "</script>"))
}

func TestRender_Token(t *testing.T) {
	out := Render("t1")

	assert.Contains(t, out, "accessToken: 't1'")
	assert.NotContains(t, out, Placeholder)
	assert.Contains(t, out, `<script src="https://cdn.retellai.com/sdk/web-sdk.js"></script>`)
	assert.Contains(t, out, `<div id="retell-call-widget"></div>`)
	assert.Contains(t, out, "containerId: 'retell-call-widget'")
	assert.Contains(t, out, "renderButton: true")
	assert.Contains(t, out, "text: 'Start Call'")
	assert.Contains(t, out, `<svg xmlns="http://www.w3.org/2000/svg"`)
}

func TestRender_Deterministic(t *testing.T) {
	assert.Equal(t, Render("abc"), Render("abc"))
	assert.NotEqual(t, Render("abc"), Render("abd"))
}

func TestRenderer_Overrides(t *testing.T) {
	r := Renderer{
		ScriptURL:   "https://example.test/sdk.js",
		ContainerID: "my-widget",
		ButtonText:  "Call sales",
	}
	out := r.Render("t9")

	assert.Contains(t, out, `<script src="https://example.test/sdk.js"></script>`)
	assert.Contains(t, out, `<div id="my-widget"></div>`)
	assert.Contains(t, out, "#my-widget {")
	assert.Contains(t, out, "containerId: 'my-widget'")
	assert.Contains(t, out, "text: 'Call sales'")
	assert.Contains(t, out, "accessToken: 't9'")
}

func TestRender_EscapesToken(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		want    string
		notWant string
	}{
		{
			name:    "quote",
			token:   "a'b",
			want:    `accessToken: 'a\'b'`,
			notWant: "accessToken: 'a'b'",
		},
		{
			name:  "backslash",
			token: `a\b`,
			want:  `accessToken: 'a\\b'`,
		},
		{
			name:    "newline",
			token:   "a\nb",
			want:    `accessToken: 'a\nb'`,
			notWant: "'a\nb'",
		},
		{
			name:    "script close",
			token:   "</SCRIPT><script>alert(1)",
			want:    `accessToken: '<\/SCRIPT><script>alert(1)'`,
			notWant: "</SCRIPT>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Render(tt.token)
			assert.Contains(t, out, tt.want)
			if tt.notWant != "" {
				assert.NotContains(t, out, tt.notWant)
			}
		})
	}
}

func TestJSString_LeavesMarkupReadable(t *testing.T) {
	assert.Equal(t, `<path d="M1"></path>`, jsString(`<path d="M1"></path>`))
	assert.Equal(t, `\x3C!-- x`, jsString("<!-- x"))
}
