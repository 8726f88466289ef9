package events

// Editor event names.
const (
	NameViewModeChanged       = "view.mode.changed"
	NameSidebarToggle         = "sidebar.toggle"
	NameCursorPositionChanged = "cursor.position.changed"
	NameEditorContentChanged  = "editor.content.changed"
	NameEditorScrollChanged   = "editor.scroll.changed"
	NameMermaidRenderStatus   = "mermaid.render.status"
)

// ViewMode selects which panes are visible.
type ViewMode int

// View modes.
const (
	ViewModeEditor ViewMode = iota
	ViewModePreview
	ViewModeSplit
)

// String returns a human-readable view mode name.
func (m ViewMode) String() string {
	switch m {
	case ViewModeEditor:
		return "editor"
	case ViewModePreview:
		return "preview"
	case ViewModeSplit:
		return "split"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m ViewMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// ViewModeChanged is published when the view mode changes.
type ViewModeChanged struct {
	Mode ViewMode `json:"mode"`
}

// EventName implements event.Event.
func (ViewModeChanged) EventName() string { return NameViewModeChanged }

// SidebarToggle is published when the sidebar is shown or hidden.
type SidebarToggle struct {
	Visible bool `json:"visible"`
}

// EventName implements event.Event.
func (SidebarToggle) EventName() string { return NameSidebarToggle }

// CursorPositionChanged is published when the editor cursor moves.
// Line and Column are 1-based.
type CursorPositionChanged struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// EventName implements event.Event.
func (CursorPositionChanged) EventName() string { return NameCursorPositionChanged }

// EditorContentChanged is published when the editor buffer changes.
type EditorContentChanged struct {
	Content string `json:"content"`
}

// EventName implements event.Event.
func (EditorContentChanged) EventName() string { return NameEditorContentChanged }

// EditorScrollChanged is published when the editor scrolls.
// ScrollFraction is in [0, 1].
type EditorScrollChanged struct {
	ScrollFraction float64 `json:"scroll_fraction"`
}

// EventName implements event.Event.
func (EditorScrollChanged) EventName() string { return NameEditorScrollChanged }

// MermaidRenderStatus reports diagram rendering progress.
type MermaidRenderStatus struct {
	Status string `json:"status"`
	Active bool   `json:"active"`
}

// EventName implements event.Event.
func (MermaidRenderStatus) EventName() string { return NameMermaidRenderStatus }
