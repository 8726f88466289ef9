package app

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/markamp/markamp/internal/event/events"
	"github.com/markamp/markamp/internal/plugin"
)

// Languages maps file extensions to language ids used by onLanguage
// activation events.
type Languages struct {
	mu     sync.RWMutex
	byExt  map[string]string
	byName map[string]string
}

// NewLanguages returns a map holding the built-in languages.
func NewLanguages() *Languages {
	l := &Languages{
		byExt:  make(map[string]string),
		byName: make(map[string]string),
	}
	l.Add("markdown", []string{".md", ".markdown", ".mdown", ".mkd", ".mkdn"}, "Markdown")
	l.Add("mermaid", []string{".mmd", ".mermaid"}, "Mermaid")
	l.Add("plaintext", []string{".txt"}, "Plain Text")
	return l
}

// Add maps each extension to id. Extensions are matched case-insensitively
// and may omit the leading dot.
func (l *Languages) Add(id string, extensions []string, aliases ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		l.byExt[ext] = id
	}
	l.byName[strings.ToLower(id)] = id
	for _, a := range aliases {
		l.byName[strings.ToLower(a)] = id
	}
}

// AddContributed registers the languages contributed by an extension.
func (l *Languages) AddContributed(langs []plugin.ExtensionLanguage) {
	for _, lang := range langs {
		if lang.ID == "" {
			continue
		}
		l.Add(lang.ID, lang.Extensions, lang.Aliases...)
	}
}

// Detect returns the language id for path, or "" if unknown.
func (l *Languages) Detect(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.byExt[ext]
}

// Resolve maps an id or alias to a language id.
func (l *Languages) Resolve(name string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	id, ok := l.byName[strings.ToLower(name)]
	return id, ok
}

// IDs returns the known language ids, sorted.
func (l *Languages) IDs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	seen := make(map[string]bool)
	var ids []string
	for _, id := range l.byExt {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// detectEncoding names the encoding of data.
func detectEncoding(data []byte) string {
	switch {
	case bytes.HasPrefix(data, utf8BOM):
		return "UTF-8 with BOM"
	case utf8.Valid(data):
		return "UTF-8"
	default:
		return "binary"
	}
}

// OpenFile reads path and queues FileOpened, FileEncodingDetected and
// ActiveFileChanged. The events are delivered on the next main loop tick,
// which activates plugins waiting on the file's language.
func (app *Application) OpenFile(path string) error {
	if path == "" {
		return ErrNoFilePath
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return &FileError{Op: "open", Path: path, Err: err}
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return &FileError{Op: "open", Path: path, Err: err}
	}

	app.logger.Debug("opened %s (%d bytes)", abs, len(data))
	app.bus.Queue(events.FileOpened{FilePath: abs, Content: string(bytes.TrimPrefix(data, utf8BOM))})
	app.bus.Queue(events.FileEncodingDetected{EncodingName: detectEncoding(data)})
	app.bus.Queue(events.ActiveFileChanged{FileID: abs})
	return nil
}
