// Package widget owns the lifecycle of the embedded call widget: it binds a
// provisioned session to exactly one widget instance, turns the widget's
// asynchronous callbacks into observable call state, and tears the instance
// down on every exit path.
package widget

// DefaultButtonIcon is the phone glyph rendered on the default call button.
const DefaultButtonIcon = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="2"><path d="M15.05 5A5 5 0 0 1 19 8.95M15.05 1A9 9 0 0 1 23 8.94m-1 7.98v3a2 2 0 0 1-2.18 2 19.79 19.79 0 0 1-8.63-3.07 19.5 19.5 0 0 1-6-6 19.79 19.79 0 0 1-3.07-8.67A2 2 0 0 1 4.11 2h3a2 2 0 0 1 2 1.72 12.84 12.84 0 0 0 .7 2.81 2 2 0 0 1-.45 2.11L8.09 9.91a16 16 0 0 0 6 6l1.27-1.27a2 2 0 0 1 2.11-.45 12.84 12.84 0 0 0 2.81.7A2 2 0 0 1 22 16.92z"></path></svg>`

// DefaultContainerID is the element id the widget mounts into.
const DefaultContainerID = "retell-call-widget"

// ButtonConfig controls the runtime's default call button.
type ButtonConfig struct {
	Text string `json:"text"`
	Icon string `json:"icon,omitempty"`
}

// DefaultButton returns the button used when none is configured.
func DefaultButton() ButtonConfig {
	return ButtonConfig{Text: "Start Call", Icon: DefaultButtonIcon}
}

// Config is handed to Runtime.CreateWidget. The callbacks may be invoked from
// any goroutine, including synchronously from inside CreateWidget.
type Config struct {
	ContainerID  string
	AccessToken  string
	RenderButton bool
	Button       *ButtonConfig

	OnStarted func()
	OnEnded   func()
	OnError   func(reason string)
}

// Runtime creates live widget instances.
type Runtime interface {
	CreateWidget(cfg Config) (Handle, error)
}

// Handle is one live widget instance. Destroy releases it; callers destroy a
// handle at most once.
type Handle interface {
	Destroy() error
}
