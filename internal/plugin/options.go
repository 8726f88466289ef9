package plugin

import "github.com/markamp/markamp/internal/logging"

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the manager logger.
func WithLogger(l logging.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithSettingsStore sets the store that receives contributed setting defaults
// and is exposed to plugins as Context.Config.
func WithSettingsStore(s SettingsStore) ManagerOption {
	return func(m *Manager) {
		m.settings = s
	}
}

// WithCommandRegistrar sets the command palette collaborator.
func WithCommandRegistrar(r CommandRegistrar) ManagerOption {
	return func(m *Manager) {
		m.palette = r
	}
}

// WithShortcutRegistrar sets the keybinding collaborator.
func WithShortcutRegistrar(r ShortcutRegistrar) ManagerOption {
	return func(m *Manager) {
		m.shortcuts = r
	}
}

// WithThemeRegistrar sets the theme collaborator.
func WithThemeRegistrar(r ThemeRegistrar) ManagerOption {
	return func(m *Manager) {
		m.themes = r
	}
}

// WithViewRegistrar sets the view collaborator.
func WithViewRegistrar(r ViewRegistrar) ManagerOption {
	return func(m *Manager) {
		m.views = r
	}
}

// WithMenuRegistrar sets the menu collaborator.
func WithMenuRegistrar(r MenuRegistrar) ManagerOption {
	return func(m *Manager) {
		m.menus = r
	}
}

// WithSnippetRegistrar sets the snippet collaborator.
func WithSnippetRegistrar(r SnippetRegistrar) ManagerOption {
	return func(m *Manager) {
		m.snippets = r
	}
}

// WithService exposes a host service to plugins through Context.Service.
func WithService(name string, svc any) ManagerOption {
	return func(m *Manager) {
		m.services[name] = svc
	}
}
