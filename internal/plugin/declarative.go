package plugin

// Declarative is a plugin without code. It only contributes the points
// declared in its manifest; extension packs are the common case.
type Declarative struct {
	manifest *Manifest
}

// NewDeclarative creates a code-less plugin from an extension manifest.
func NewDeclarative(ext *ExtensionManifest) *Declarative {
	return &Declarative{manifest: ext.ToManifest()}
}

// Manifest implements Plugin.
func (d *Declarative) Manifest() *Manifest { return d.manifest }

// Activate implements Plugin.
func (d *Declarative) Activate(*Context) error { return nil }

// Deactivate implements Plugin.
func (d *Declarative) Deactivate() error { return nil }
