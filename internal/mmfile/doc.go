// Package mmfile provides platform-specific helpers for loading table files
// into memory. On unix the file is memory-mapped read-only; elsewhere it is
// read in full.
package mmfile
