// Package cli implements the explaingate command-line interface.
package cli
