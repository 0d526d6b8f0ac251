// Package registry is the capability boundary between compiled plans and
// the systems that execute them.
//
// A Backend executes one plan step at a time. Modules register backends by
// name at startup; the runner looks one up and never needs compiled-in
// knowledge of any test technology. The compiler core does not import this
// package.
package registry
