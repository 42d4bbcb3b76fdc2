package tracker

import "gopkg.in/yaml.v3"

// scopeSnapshot and functionSnapshot are the serializable shadow of Frame and
// CaptureDescriptor: yaml.Marshal can't walk an interface{} Value/Info field
// usefully, so DumpYAML only records what's safe to print generically,
// leaving the live value/info payload out (it belongs to the embedding
// host, not to tracker's own diagnostic surface).
type scopeSnapshot struct {
	ID        ScopeID  `yaml:"id"`
	ParentID  ScopeID  `yaml:"parentId,omitempty"`
	Decl      string   `yaml:"decl"`
	Bindings  []string `yaml:"bindings,omitempty"`
}

type functionSnapshot struct {
	FuncID FuncID    `yaml:"funcId"`
	Scopes []ScopeID `yaml:"scopes,omitempty"`
}

type registrySnapshot struct {
	Scopes    []scopeSnapshot    `yaml:"scopes"`
	Functions []functionSnapshot `yaml:"functions"`
}

// DumpYAML renders the same registry state Dump prints as a tree, as YAML
// instead, for callers that want to diff two snapshots or feed the dump into
// another tool rather than a human's terminal.
func (r *Registry) DumpYAML() ([]byte, error) {
	snap := registrySnapshot{}
	for id, f := range r.scopes {
		s := scopeSnapshot{ID: id, Decl: f.Decl}
		if f.HasParent {
			s.ParentID = f.ParentID
		}
		for name := range f.Bindings {
			s.Bindings = append(s.Bindings, name)
		}
		snap.Scopes = append(snap.Scopes, s)
	}
	for _, d := range r.functions {
		snap.Functions = append(snap.Functions, functionSnapshot{FuncID: d.FuncID, Scopes: d.Scopes})
	}
	return yaml.Marshal(snap)
}
