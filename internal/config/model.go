package config

// FileName is the project configuration file looked up in the source root.
const FileName = "tast.hcl"

// File is the decoded project configuration. Every attribute is optional.
type File struct {
	// Sources are glob patterns selecting entry files below the root.
	Sources []string `hcl:"sources,optional"`
	// Exclude are glob patterns removed from Sources.
	Exclude []string `hcl:"exclude,optional"`

	Graph        string `hcl:"graph,optional"`
	Strategy     string `hcl:"strategy,optional"`
	Format       string `hcl:"format,optional"`
	Filter       string `hcl:"filter,optional"`
	Root         string `hcl:"root,optional"`
	Target       string `hcl:"target,optional"`
	StrictPasses bool   `hcl:"strict_passes,optional"`

	LogLevel  string `hcl:"log_level,optional"`
	LogFormat string `hcl:"log_format,optional"`

	// Path is where the file was read from.
	Path string
}
