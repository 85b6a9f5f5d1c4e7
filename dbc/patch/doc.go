// Package patch applies update, insert and copy operations to a decoded
// WDBC table.
//
// A Session owns one table for one pass: its records, its string pool and
// the diagnostics produced along the way. Operations run strictly in plan
// order, and nothing is shared between sessions, so distinct tables can be
// patched concurrently.
//
// Recoverable problems (an unknown field, a missing record, a duplicate key)
// never abort the pass. They skip the affected operation or assignment and
// are reported in Result.Diagnostics. The package does not log.
//
// Example:
//
//	plan := patch.NewPlan()
//	plan.AddUpdate(patch.Index(0), 133, patch.Assign("name", patch.String("Fireball II")))
//	sess := patch.NewSession("Spell.dbc", tbl, names, patch.DefaultOptions())
//	res, err := sess.Apply(ctx, plan)
package patch
