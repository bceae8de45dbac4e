// Package ir defines the closed set of IR operation variants, the module
// (an ordered op list with identifier allocation), and the value store
// mapping an identifier to its materialized image or buffer (§3, §4.3).
package ir

// Id is a small integer unique within a Module, naming one operation's
// result. Identifiers are the sole handles later operations use to refer
// to earlier results.
type Id uint32

// InvalidId is the zero value; no real op ever produces it.
const InvalidId Id = 0
