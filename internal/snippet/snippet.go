// Package snippet renders the copy-pasteable embed code that mounts the call
// widget on a third-party page.
package snippet

import (
	"bytes"
	"regexp"
	"strings"
	"text/template"

	"github.com/iksnae/agent-webcall/internal"
	"github.com/iksnae/agent-webcall/internal/widget"
)

// Placeholder stands in for the access token until a session exists
const Placeholder = "YOUR_ACCESS_TOKEN"

// Renderer holds the page-level settings baked into the snippet. Zero fields
// fall back to the defaults.
type Renderer struct {
	ScriptURL   string
	ContainerID string
	ButtonText  string
	ButtonIcon  string
}

// Render renders the default snippet for token
func Render(token string) string {
	return Renderer{}.Render(token)
}

// Render returns the embed code bound to token, or to Placeholder when token
// is empty.
func (r Renderer) Render(token string) string {
	if token == "" {
		token = Placeholder
	}
	data := struct {
		ScriptURL   string
		ContainerID string
		ButtonText  string
		ButtonIcon  string
		Token       string
	}{
		ScriptURL:   orDefault(r.ScriptURL, internal.DefaultScriptURL),
		ContainerID: orDefault(r.ContainerID, widget.DefaultContainerID),
		ButtonText:  orDefault(r.ButtonText, widget.DefaultButton().Text),
		ButtonIcon:  orDefault(r.ButtonIcon, widget.DefaultButtonIcon),
		Token:       token,
	}

	var buf bytes.Buffer
	// the template is static and every field is a string, so Execute cannot fail
	_ = snippetTemplate.Execute(&buf, data)
	return strings.TrimSpace(buf.String())
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

var snippetTemplate = template.Must(template.New("snippet").Funcs(template.FuncMap{
	"js": jsString,
}).Parse(snippetText))

// jsString escapes s for a single-quoted JavaScript string inside a <script>
// element. Markup in s is kept readable; only sequences that would close the
// element are broken up.
func jsString(s string) string {
	s = jsReplacer.Replace(s)
	return scriptCloser.ReplaceAllStringFunc(s, func(m string) string {
		return `<\/` + m[2:]
	})
}

var jsReplacer = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	"\n", `\n`,
	"\r", `\r`,
	"\u2028", `\u2028`,
	"\u2029", `\u2029`,
	"<!--", `\x3C!--`,
)

var scriptCloser = regexp.MustCompile(`(?i)</script`)

const snippetText = `
<!-- Add this to your HTML -->
<script src="{{.ScriptURL}}"></script>

<!-- Default widget styles -->
<style>
  #{{.ContainerID}} {
    max-width: 400px;
    margin: 20px auto;
    padding: 20px;
    font-family: system-ui, -apple-system, sans-serif;
  }

  #retell-call-button {
    background-color: #2563eb;
    color: white;
    padding: 12px 24px;
    border: none;
    border-radius: 6px;
    cursor: pointer;
    font-size: 16px;
    font-weight: 500;
    display: flex;
    align-items: center;
    gap: 8px;
    margin: 0 auto;
  }

  #retell-call-button:hover {
    background-color: #1d4ed8;
  }

  #retell-call-button svg {
    width: 20px;
    height: 20px;
  }
</style>

<!-- Add this where you want the call widget to appear -->
<div id="{{.ContainerID}}"></div>

<script>
const widget = Retell.widget.createCallWidget({
  containerId: '{{js .ContainerID}}',
  accessToken: '{{js .Token}}',
  renderButton: true, // Enable default button rendering
  buttonConfig: {
    // Optional: Configure button appearance
    text: '{{js .ButtonText}}',
    icon: '{{js .ButtonIcon}}'
  }
});
</script>
`
