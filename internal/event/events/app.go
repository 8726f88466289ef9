package events

// Application event names.
const (
	NameAppReady         = "app.ready"
	NameAppShutdown      = "app.shutdown"
	NameThemeChanged     = "theme.changed"
	NameUIScaleChanged   = "ui.scale.changed"
	NameInputModeChanged = "input.mode.changed"
)

// AppReady is published once after startup has completed.
type AppReady struct{}

// EventName implements event.Event.
func (AppReady) EventName() string { return NameAppReady }

// AppShutdown is published when the application begins shutting down.
type AppShutdown struct{}

// EventName implements event.Event.
func (AppShutdown) EventName() string { return NameAppShutdown }

// ThemeChanged is published when the active theme changes.
type ThemeChanged struct {
	ThemeID string `json:"theme_id"`
}

// EventName implements event.Event.
func (ThemeChanged) EventName() string { return NameThemeChanged }

// UIScaleChanged is published when the display scale factor changes.
type UIScaleChanged struct {
	ScaleFactor float64 `json:"scale_factor"`
}

// EventName implements event.Event.
func (UIScaleChanged) EventName() string { return NameUIScaleChanged }

// InputModeChanged is published when the user switches between keyboard and
// pointer navigation.
type InputModeChanged struct {
	UsingKeyboard bool `json:"using_keyboard"`
}

// EventName implements event.Event.
func (InputModeChanged) EventName() string { return NameInputModeChanged }
