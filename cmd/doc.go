// Package cmd wires the cobra-based CLI commands for entaldocs.
//
// Each command lives in its own file with a newXCmd constructor; shared
// behavior (prompting, boilerplate sourcing, the build wrapper) is factored
// into this package so subcommands stay declarative.
package cmd
