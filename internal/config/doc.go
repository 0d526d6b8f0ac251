// Package config reads the optional project configuration file, tast.hcl,
// found in the source root.
//
// The file is plain HCL with top-level attributes only:
//
//	sources       = ["specs/**/*.tast"]
//	exclude       = ["specs/wip/**"]
//	strategy      = "topological"
//	format        = "yaml"
//	filter        = "smoke AND NOT slow"
//	strict_passes = true
//	log_level     = "debug"
//
// Values here are defaults; command-line flags override them. Validation of
// the values themselves is left to the application config.
package config
