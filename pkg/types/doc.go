// Package types holds the value types shared between the table engine and
// its hosts: diagnostics and their severities.
//
// This package has no dependencies beyond the standard library.
package types
