package model

// ResolvedPlugin is a plugin source whose contents were found on disk.
// It is immutable for the duration of one sync run.
type ResolvedPlugin struct {
	// Spec is the source string exactly as configured.
	Spec string `json:"spec"`
	// Path is the absolute plugin directory.
	Path string `json:"path"`
	// Name is the plugin's display name used for skill disambiguation.
	Name string `json:"name"`
}

// SkillEntry is one skill directory contributed by a plugin.
// Identity is (PluginSource, PluginName, FolderName).
type SkillEntry struct {
	FolderName   string `json:"folderName"`
	PluginName   string `json:"pluginName"`
	PluginSource string `json:"pluginSource"`
	SourcePath   string `json:"sourcePath"`
}

// Key returns the identity of the entry as a single comparable string.
func (e SkillEntry) Key() string {
	return e.PluginSource + "\x00" + e.PluginName + "\x00" + e.FolderName
}

// DisabledKey returns the "plugin:skill" form matched against disabledSkills.
func (e SkillEntry) DisabledKey() string {
	return e.PluginName + ":" + e.FolderName
}

// Action is the outcome of one materialization unit.
type Action string

const (
	ActionCopied    Action = "copied"
	ActionGenerated Action = "generated"
	ActionSkipped   Action = "skipped"
	ActionFailed    Action = "failed"
)

// CopyResult records what happened to one source → destination unit.
// Destination is relative to the sync root; it is empty for units that never
// reached a destination (disabled or invalid skills).
type CopyResult struct {
	Source      string `json:"source"`
	Destination string `json:"destination,omitempty"`
	Action      Action `json:"action"`
	Error       string `json:"error,omitempty"`
	// Client is the representative client the unit was written for.
	Client Client `json:"client,omitempty"`
	// Kind is the content kind of the unit.
	Kind ContentKind `json:"kind,omitempty"`
}

// Failed builds a failed result from an error.
func Failed(source, dest string, err error) CopyResult {
	r := CopyResult{Source: source, Destination: dest, Action: ActionFailed}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// Produced reports whether the unit left an artifact the run owns.
func (r CopyResult) Produced() bool {
	return r.Destination != "" && (r.Action == ActionCopied || r.Action == ActionGenerated || r.Action == ActionSkipped)
}
