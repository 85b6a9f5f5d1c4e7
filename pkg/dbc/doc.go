/*
Package dbc applies YAML patch documents to directories of WDBC tables.

# Quick Start

Patch every table named by the documents in ./patches:

	run, err := dbc.Apply(ctx, dbc.ApplyOptions{
	    TableDir:   "dbc",
	    PatchDir:   "patches",
	    SchemaDirs: []string{"schema"},
	    OutDir:     "build",
	})

Each table is read, patched and written to OutDir under its own file name.
Tables are processed concurrently, but every table sees its operations in
the same order on every run: documents sorted by file name, then sections,
then listed order.

# Diagnostics

Problems that only affect one operation (an unknown field, a key that does
not exist, an insert that would duplicate a key) do not fail the run. They
are collected per table and summarized in Run.Report:

	for _, d := range run.Report.Warnings() {
	    fmt.Println(d)
	}

Malformed tables or patch documents abort the run with an error naming the
file.

# Single tables

ApplyBytes patches one in-memory table and is what the HTTP service uses:

	out, err := dbc.ApplyBytes(ctx, "Spell.dbc", data, plan, names, dbc.DefaultTableOptions())
*/
package dbc
