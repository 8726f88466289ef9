package plugin

// CommandRegistrar receives contributed commands, typically the command palette.
// shortcut is the display text of the first keybinding for the command, if any.
type CommandRegistrar interface {
	RegisterCommand(cmd CommandContribution, shortcut string, run func() error)
}

// Shortcut is a keybinding handed to a ShortcutRegistrar.
type Shortcut struct {
	Command     string
	Key         string
	Display     string
	When        string
	Category    string
	Description string
	Action      func() error
}

// ShortcutRegistrar receives contributed keybindings.
type ShortcutRegistrar interface {
	RegisterShortcut(s Shortcut)
}

// SettingsStore is the settings backend. Contributed defaults go to the
// lowest-precedence layer, so user and file values always win over them.
type SettingsStore interface {
	GetString(key string) string
	SetDefault(key string, value any) bool
}

// ThemeRegistrar receives contributed themes. dir is the extension directory
// that theme paths are relative to.
type ThemeRegistrar interface {
	RegisterTheme(theme ThemeContribution, dir string)
}

// ViewRegistrar receives contributed views.
type ViewRegistrar interface {
	RegisterView(view ViewContribution)
}

// MenuRegistrar receives contributed menu items. title is the title of the
// referenced command when it is contributed by the same plugin.
type MenuRegistrar interface {
	RegisterMenuItem(item MenuContribution, title string)
}

// SnippetRegistrar receives contributed snippets.
type SnippetRegistrar interface {
	RegisterSnippet(snippet SnippetContribution)
}

// processContributions hands every contribution point of manifest to the
// configured collaborators. Missing collaborators skip their section.
func (m *Manager) processContributions(manifest *Manifest, dir string) {
	contrib := &manifest.Contributions

	titles := make(map[string]string, len(contrib.Commands))
	for _, cmd := range contrib.Commands {
		titles[cmd.ID] = cmd.Title
	}

	if m.palette != nil {
		for _, cmd := range contrib.Commands {
			shortcut := ""
			if m.shortcuts != nil {
				for _, kb := range contrib.Keybindings {
					if kb.Command == cmd.ID {
						shortcut = FormatShortcut(kb.Key)
						break
					}
				}
			}
			m.palette.RegisterCommand(cmd, shortcut, m.commandRunner(cmd.ID))
		}
	}

	if m.shortcuts != nil {
		for _, kb := range contrib.Keybindings {
			m.shortcuts.RegisterShortcut(Shortcut{
				Command:     kb.Command,
				Key:         kb.Key,
				Display:     FormatShortcut(kb.Key),
				When:        kb.When,
				Category:    "Plugin",
				Description: titles[kb.Command],
				Action:      m.commandRunner(kb.Command),
			})
		}
	}

	m.applySettingDefaults(contrib.Settings)

	if m.themes != nil {
		for _, th := range contrib.Themes {
			m.themes.RegisterTheme(th, dir)
		}
	}

	if m.views != nil {
		for _, v := range contrib.Views {
			m.views.RegisterView(v)
		}
	}

	if m.menus != nil {
		for _, item := range contrib.Menus {
			m.menus.RegisterMenuItem(item, titles[item.Command])
		}
	}

	if m.snippets != nil {
		for _, sn := range contrib.Snippets {
			m.snippets.RegisterSnippet(sn)
		}
	}
}

// applySettingDefaults registers each contributed default. A key that
// already has a default keeps it.
func (m *Manager) applySettingDefaults(settings []SettingContribution) {
	if m.settings == nil {
		return
	}
	for _, s := range settings {
		if !m.settings.SetDefault(s.ID, s.Default) {
			m.logger.Debug("setting %q already has a default", s.ID)
		}
	}
}

func (m *Manager) commandRunner(commandID string) func() error {
	return func() error {
		return m.ExecuteCommand(commandID)
	}
}
