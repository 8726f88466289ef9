package plugin

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/markamp/markamp/internal/event"
	"github.com/markamp/markamp/internal/event/dispatch"
	"github.com/markamp/markamp/internal/event/events"
	"github.com/markamp/markamp/internal/logging"
)

// Manager manages the lifecycle of all plugins: registration, activation
// (eager, lazy and dependency-driven), contribution processing, command
// routing and deactivation.
//
// Query methods are safe for concurrent use. Lifecycle methods (Register,
// Unregister, Activate*, Deactivate*, TriggerActivationEvent, ExecuteCommand)
// call into plugin code without holding locks and must be called from a
// single goroutine, normally the one running the main loop.
type Manager struct {
	mu sync.RWMutex

	// Registered plugins by canonical id
	plugins map[string]*entry

	// Registration order (canonical ids)
	order []string

	// Raw activation event -> canonical ids waiting on it
	pending map[string][]string

	// Canonical ids awaiting an activation event
	pendingIDs map[string]bool

	// Command id -> canonical id of the plugin that registered it
	commandOwners map[string]string

	bus      *event.Bus
	logger   logging.Logger
	executor *dispatch.Executor

	// Collaborators
	settings  SettingsStore
	palette   CommandRegistrar
	shortcuts ShortcutRegistrar
	themes    ThemeRegistrar
	views     ViewRegistrar
	menus     MenuRegistrar
	snippets  SnippetRegistrar
	services  map[string]any

	// Stats
	activations        atomic.Uint64
	activationFailures atomic.Uint64
	deactivations      atomic.Uint64
	commandsExecuted   atomic.Uint64
}

// entry is the manager's record of one registered plugin.
type entry struct {
	id       string
	key      string
	plugin   Plugin
	manifest *Manifest
	ext      *ExtensionManifest
	state    State
	ctx      *Context
	commands map[string]func() error

	// contributed is set once the manifest contributions have been handed
	// to the collaborators. Re-activation does not repeat them.
	contributed bool
}

// dependencies returns the declared extension dependencies.
func (e *entry) dependencies() []string {
	if e.ext == nil {
		return nil
	}
	return e.ext.ExtensionDependencies
}

// Stats contains plugin manager statistics.
type Stats struct {
	Registered         int
	Active             int
	Pending            int
	Commands           int
	Activations        uint64
	ActivationFailures uint64
	Deactivations      uint64
	CommandsExecuted   uint64
}

// Info summarizes a registered plugin.
type Info struct {
	ID               string
	Name             string
	Version          string
	State            State
	Pending          bool
	ActivationEvents []string
	Dependencies     []string
}

// NewManager creates a plugin manager that publishes lifecycle events on bus.
func NewManager(bus *event.Bus, opts ...ManagerOption) *Manager {
	if bus == nil {
		bus = event.NewBus()
	}

	m := &Manager{
		plugins:       make(map[string]*entry),
		pending:       make(map[string][]string),
		pendingIDs:    make(map[string]bool),
		commandOwners: make(map[string]string),
		bus:           bus,
		logger:        logging.Nop(),
		services:      make(map[string]any),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.logger = m.logger.WithComponent("plugin")
	m.executor = dispatch.NewExecutor(
		dispatch.WithPanicHandler(func(name string, recovered any, _ []byte) {
			m.logger.Warn("plugin code panicked in %s: %v", name, recovered)
		}),
	)

	return m
}

// Register adds a plugin. ext may be nil for built-in plugins, which then
// activate eagerly. The plugin is not activated until ActivateAll, Activate
// or a matching activation event.
func (m *Manager) Register(p Plugin, ext *ExtensionManifest) error {
	if p == nil {
		return fmt.Errorf("nil plugin: %w", ErrInvalidPlugin)
	}
	manifest := p.Manifest()
	if manifest == nil || manifest.ID == "" {
		return fmt.Errorf("plugin without id: %w", ErrInvalidPlugin)
	}

	key := CanonicalID(manifest.ID)

	m.mu.Lock()
	if _, exists := m.plugins[key]; exists {
		m.mu.Unlock()
		m.logger.Warn("plugin %q is already registered, skipping", manifest.ID)
		return fmt.Errorf("plugin %q: %w", manifest.ID, ErrAlreadyRegistered)
	}

	m.plugins[key] = &entry{
		id:       manifest.ID,
		key:      key,
		plugin:   p,
		manifest: manifest,
		ext:      ext,
		state:    StateRegistered,
		commands: make(map[string]func() error),
	}
	m.order = append(m.order, key)
	m.mu.Unlock()

	m.logger.Info("registered plugin %s", manifest)
	return nil
}

// Unregister deactivates the plugin if it is active and removes it along with
// its pending activation entries.
func (m *Manager) Unregister(id string) error {
	m.mu.RLock()
	e, ok := m.lookupLocked(id)
	var state State
	if ok {
		state = e.state
	}
	m.mu.RUnlock()

	if !ok {
		return fmt.Errorf("plugin %q: %w", id, ErrPluginNotFound)
	}

	if state == StateActive {
		if err := m.Deactivate(e.id); err != nil {
			m.logger.Warn("deactivating %q during unregister: %v", e.id, err)
		}
	}

	m.mu.Lock()
	m.removePendingLocked(e.key)
	delete(m.plugins, e.key)
	m.order = slices.DeleteFunc(m.order, func(k string) bool { return k == e.key })
	m.mu.Unlock()

	m.logger.Info("unregistered plugin %s", e.id)
	return nil
}

// ActivateAll activates every registered plugin that has no extension
// manifest, declares no activation events, or declares "*". Other plugins are
// indexed under their activation events and activate when one is triggered.
// Activation failures are logged and joined into the returned error.
func (m *Manager) ActivateAll() error {
	var errs []error

	for _, key := range m.orderSnapshot() {
		m.mu.Lock()
		e, ok := m.plugins[key]
		if !ok || e.state != StateRegistered {
			m.mu.Unlock()
			continue
		}
		if e.ext != nil && !e.ext.ActivatesEagerly() {
			m.registerActivationEventsLocked(e)
			m.mu.Unlock()
			continue
		}
		id := e.id
		m.mu.Unlock()

		if err := m.Activate(id); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Activate activates a plugin after its dependencies. Activating an active
// plugin is a no-op.
func (m *Manager) Activate(id string) error {
	m.mu.Lock()
	e, ok := m.lookupLocked(id)
	if !ok {
		m.mu.Unlock()
		m.logger.Warn("cannot activate unknown plugin %q", id)
		return fmt.Errorf("plugin %q: %w", id, ErrPluginNotFound)
	}

	switch e.state {
	case StateActive:
		m.mu.Unlock()
		return nil
	case StateActivating:
		m.mu.Unlock()
		return &CycleError{Plugin: e.id}
	case StateDeactivating:
		m.mu.Unlock()
		return &ActivationError{Plugin: e.id, Err: errors.New("plugin is deactivating")}
	}

	e.state = StateActivating
	deps := slices.Clone(e.dependencies())
	m.mu.Unlock()

	for _, dep := range deps {
		if err := m.activateDependency(dep); err != nil {
			return m.failActivation(e, nil, err)
		}
	}

	m.mu.Lock()
	contribute := !e.contributed
	e.contributed = true
	m.mu.Unlock()
	if contribute {
		m.processContributions(e.manifest, e.extensionDir())
	}

	ctx := m.newContext(e)

	m.mu.Lock()
	e.ctx = ctx
	m.mu.Unlock()

	var actErr error
	res := m.executor.Run("activate "+e.id, func() {
		actErr = e.plugin.Activate(ctx)
	})
	if res.Panicked {
		actErr = res.Err("activate " + e.id)
	}
	if actErr != nil {
		return m.failActivation(e, ctx, actErr)
	}

	m.mu.Lock()
	e.state = StateActive
	m.removePendingLocked(e.key)
	m.mu.Unlock()

	m.activations.Add(1)
	m.logger.Info("activated plugin %s", e.manifest)
	m.bus.Publish(events.PluginActivated{PluginID: e.id})
	return nil
}

func (m *Manager) activateDependency(dep string) error {
	m.mu.RLock()
	_, ok := m.lookupLocked(dep)
	m.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%q: %w", dep, ErrDependencyNotFound)
	}
	return m.Activate(dep)
}

// failActivation rolls a plugin back to Registered after a failed activation.
func (m *Manager) failActivation(e *entry, ctx *Context, cause error) error {
	if ctx != nil {
		ctx.subs.CancelAll()
	}

	m.mu.Lock()
	m.clearCommandsLocked(e)
	e.ctx = nil
	e.state = StateRegistered
	m.mu.Unlock()

	m.activationFailures.Add(1)
	m.logger.Warn("plugin %q failed to activate: %v", e.id, cause)
	m.bus.Publish(events.PluginActivationFailed{PluginID: e.id, Error: cause.Error()})

	return &ActivationError{Plugin: e.id, Err: cause}
}

// Deactivate deactivates an active plugin. Commands registered by the plugin
// and subscriptions tracked by its context are released even when the
// plugin's Deactivate fails.
func (m *Manager) Deactivate(id string) error {
	m.mu.Lock()
	e, ok := m.lookupLocked(id)
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("plugin %q: %w", id, ErrPluginNotFound)
	}
	if e.state != StateActive {
		m.mu.Unlock()
		return fmt.Errorf("plugin %q: %w", id, ErrNotActive)
	}
	e.state = StateDeactivating
	ctx := e.ctx
	m.mu.Unlock()

	var deErr error
	res := m.executor.Run("deactivate "+e.id, func() {
		deErr = e.plugin.Deactivate()
	})
	if res.Panicked {
		deErr = res.Err("deactivate " + e.id)
	}
	if deErr != nil {
		m.logger.Warn("plugin %q failed to deactivate cleanly: %v", e.id, deErr)
	}

	if ctx != nil {
		ctx.subs.CancelAll()
	}

	m.mu.Lock()
	m.clearCommandsLocked(e)
	e.ctx = nil
	e.state = StateRegistered
	m.mu.Unlock()

	m.deactivations.Add(1)
	m.logger.Info("deactivated plugin %s", e.manifest)
	m.bus.Publish(events.PluginDeactivated{PluginID: e.id})

	if deErr != nil {
		return fmt.Errorf("deactivate plugin %q: %w", e.id, deErr)
	}
	return nil
}

// DeactivateAll deactivates every active plugin in reverse registration order.
func (m *Manager) DeactivateAll() error {
	keys := m.orderSnapshot()
	var errs []error

	for i := len(keys) - 1; i >= 0; i-- {
		m.mu.RLock()
		e, ok := m.plugins[keys[i]]
		active := ok && e.state == StateActive
		m.mu.RUnlock()

		if !active {
			continue
		}
		if err := m.Deactivate(e.id); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// TriggerActivationEvent activates every plugin waiting on the raw activation
// event (for example "onLanguage:markdown") and returns the ids of the plugins
// that became active. Plugins that fail stay pending.
func (m *Manager) TriggerActivationEvent(raw string) []string {
	m.mu.RLock()
	keys := slices.Clone(m.pending[raw])
	m.mu.RUnlock()

	var activated []string
	for _, key := range keys {
		m.mu.RLock()
		e, ok := m.plugins[key]
		ready := ok && m.pendingIDs[key] && e.state == StateRegistered
		m.mu.RUnlock()

		if !ready {
			continue
		}
		if err := m.Activate(e.id); err != nil {
			continue
		}
		activated = append(activated, e.id)
	}

	if len(activated) > 0 {
		m.logger.Debug("activation event %q activated %v", raw, activated)
	}
	return activated
}

// ResolveDependencies returns the transitive dependencies of id in
// activation order, deepest first, excluding id itself. Dependency ids that
// are not registered are included as leaves. A cycle yields a *CycleError.
func (m *Manager) ResolveDependencies(id string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	root, ok := m.lookupLocked(id)
	if !ok {
		return nil, fmt.Errorf("plugin %q: %w", id, ErrPluginNotFound)
	}

	visited := make(map[string]bool)
	inStack := make(map[string]bool)
	var order []string

	var visit func(id string, path []string) error
	visit = func(id string, path []string) error {
		key := CanonicalID(id)
		name := id
		e, registered := m.plugins[key]
		if registered {
			name = e.id
		}

		if inStack[key] {
			return &CycleError{Plugin: name, Path: append(slices.Clone(path), name)}
		}
		if visited[key] {
			return nil
		}

		inStack[key] = true
		path = append(path, name)
		if registered {
			for _, dep := range e.dependencies() {
				if err := visit(dep, path); err != nil {
					return err
				}
			}
		}
		inStack[key] = false
		visited[key] = true
		order = append(order, name)
		return nil
	}

	if err := visit(root.id, nil); err != nil {
		return nil, err
	}

	// The root is visited last.
	return order[:len(order)-1], nil
}

// ExpandExtensionPack returns the member ids of an extension pack, or nil if
// the plugin is unknown or not a pack.
func (m *Manager) ExpandExtensionPack(id string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.lookupLocked(id)
	if !ok || e.ext == nil || len(e.ext.ExtensionPack) == 0 {
		return nil
	}
	return slices.Clone(e.ext.ExtensionPack)
}

// ExecuteCommand runs the handler registered for commandID. When no handler
// exists, plugins waiting on "onCommand:<commandID>" are activated and the
// lookup is retried.
func (m *Manager) ExecuteCommand(commandID string) error {
	handler, ok := m.lookupCommand(commandID)
	if !ok {
		m.TriggerActivationEvent("onCommand:" + commandID)
		handler, ok = m.lookupCommand(commandID)
	}
	if !ok {
		return fmt.Errorf("command %q: %w", commandID, ErrCommandNotFound)
	}

	m.commandsExecuted.Add(1)

	var err error
	res := m.executor.Run("command "+commandID, func() {
		err = handler()
	})
	if res.Panicked {
		return res.Err("command " + commandID)
	}
	return err
}

// Commands returns the ids of all registered command handlers, sorted.
func (m *Manager) Commands() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.commandOwners))
	for id := range m.commandOwners {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Get returns a registered plugin.
func (m *Manager) Get(id string) (Plugin, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.lookupLocked(id)
	if !ok {
		return nil, false
	}
	return e.plugin, true
}

// Plugins returns all registered plugins in registration order.
func (m *Manager) Plugins() []Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Plugin, 0, len(m.order))
	for _, key := range m.order {
		result = append(result, m.plugins[key].plugin)
	}
	return result
}

// Count returns the number of registered plugins.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.plugins)
}

// State returns the lifecycle state of a plugin.
func (m *Manager) State(id string) (State, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.lookupLocked(id)
	if !ok {
		return StateRegistered, false
	}
	return e.state, true
}

// IsActive returns true if the plugin is registered and active.
func (m *Manager) IsActive(id string) bool {
	state, ok := m.State(id)
	return ok && state == StateActive
}

// IsPending returns true if the plugin is waiting on an activation event.
func (m *Manager) IsPending(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pendingIDs[CanonicalID(id)]
}

// ExtensionManifest returns a copy of the plugin's extension manifest, or nil
// if the plugin is unknown or was registered without one.
func (m *Manager) ExtensionManifest(id string) *ExtensionManifest {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.lookupLocked(id)
	if !ok || e.ext == nil {
		return nil
	}
	return e.ext.Clone()
}

// SettingContributions returns the settings contributed by every registered
// plugin, in registration order.
func (m *Manager) SettingContributions() []SettingContribution {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var all []SettingContribution
	for _, key := range m.order {
		all = append(all, m.plugins[key].manifest.Contributions.Settings...)
	}
	return all
}

// Infos returns a summary of every registered plugin in registration order.
func (m *Manager) Infos() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]Info, 0, len(m.order))
	for _, key := range m.order {
		e := m.plugins[key]
		info := Info{
			ID:           e.id,
			Name:         e.manifest.Name,
			Version:      e.manifest.Version,
			State:        e.state,
			Pending:      m.pendingIDs[key],
			Dependencies: slices.Clone(e.dependencies()),
		}
		if e.ext != nil {
			for _, ev := range e.ext.ActivationEvents {
				info.ActivationEvents = append(info.ActivationEvents, ev.Raw)
			}
		}
		infos = append(infos, info)
	}
	return infos
}

// Stats returns a snapshot of manager statistics.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	active := 0
	for _, e := range m.plugins {
		if e.state == StateActive {
			active++
		}
	}
	s := Stats{
		Registered: len(m.plugins),
		Active:     active,
		Pending:    len(m.pendingIDs),
		Commands:   len(m.commandOwners),
	}
	m.mu.RUnlock()

	s.Activations = m.activations.Load()
	s.ActivationFailures = m.activationFailures.Load()
	s.Deactivations = m.deactivations.Load()
	s.CommandsExecuted = m.commandsExecuted.Load()
	return s
}

func (m *Manager) newContext(e *entry) *Context {
	return &Context{
		ExtensionID:   e.id,
		ExtensionPath: e.extensionDir(),
		ActivationID:  uuid.NewString(),
		Bus:           m.bus,
		Config:        m.settings,
		Logger:        m.logger.WithField("plugin", e.id),
		manager:       m,
		key:           e.key,
		services:      m.services,
	}
}

func (e *entry) extensionDir() string {
	if e.ext == nil {
		return ""
	}
	return e.ext.Dir()
}

func (m *Manager) registerCommand(key, commandID string, handler func() error) error {
	if commandID == "" || handler == nil {
		return fmt.Errorf("command %q: handler and id are required", commandID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.plugins[key]
	if !ok {
		return fmt.Errorf("plugin %q: %w", key, ErrPluginNotFound)
	}
	if e.state != StateActivating && e.state != StateActive {
		return fmt.Errorf("plugin %q: %w", e.id, ErrNotActive)
	}

	if owner, exists := m.commandOwners[commandID]; exists && owner != key {
		m.logger.Warn("command %q from %q replaces handler from %q", commandID, e.id, owner)
		if prev, ok := m.plugins[owner]; ok {
			delete(prev.commands, commandID)
		}
	}

	e.commands[commandID] = handler
	m.commandOwners[commandID] = key
	return nil
}

func (m *Manager) lookupCommand(commandID string) (func() error, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key, ok := m.commandOwners[commandID]
	if !ok {
		return nil, false
	}
	e, ok := m.plugins[key]
	if !ok {
		return nil, false
	}
	h, ok := e.commands[commandID]
	return h, ok
}

func (m *Manager) pluginCommands(key string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.plugins[key]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(e.commands))
	for id := range e.commands {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m *Manager) clearCommandsLocked(e *entry) {
	for id := range e.commands {
		if m.commandOwners[id] == e.key {
			delete(m.commandOwners, id)
		}
	}
	clear(e.commands)
}

func (m *Manager) registerActivationEventsLocked(e *entry) {
	if m.pendingIDs[e.key] {
		return
	}
	for _, ev := range e.ext.ActivationEvents {
		if ev.Raw == "" {
			continue
		}
		m.pending[ev.Raw] = append(m.pending[ev.Raw], e.key)
	}
	m.pendingIDs[e.key] = true
	m.logger.Debug("plugin %q waiting for activation events", e.id)
}

func (m *Manager) removePendingLocked(key string) {
	if !m.pendingIDs[key] {
		return
	}
	delete(m.pendingIDs, key)
	for raw, keys := range m.pending {
		keys = slices.DeleteFunc(keys, func(k string) bool { return k == key })
		if len(keys) == 0 {
			delete(m.pending, raw)
		} else {
			m.pending[raw] = keys
		}
	}
}

func (m *Manager) lookupLocked(id string) (*entry, bool) {
	e, ok := m.plugins[CanonicalID(id)]
	return e, ok
}

func (m *Manager) orderSnapshot() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.order)
}
