// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the commands it serves (plan, validate,
// list, visualize, run, watch), decoupled from any specific entrypoint like
// a CLI.
//
// Every command goes through the same pipeline: discover sources, load and
// parse them with their imports, build the IR, pick one graph, and compile
// or render it.
package app
