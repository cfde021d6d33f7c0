// Package core provides the general-purpose cleaning functions.
//
// Every function here takes an [audit.Recorder] first, works on a copy of its
// input, and records exactly one event named after its registry entry. Nothing
// in this package touches the registry: the toolkit registers these functions
// explicitly at startup.
//
// # Table and Column Functions
//
// Functions that reshape a table take and return a *[frame.Frame]:
//
//	f = core.CleanColumnHeaders(rec, f, core.DefaultHeaderOptions())
//	f, err = core.RemoveDuplicates(rec, f, []string{"id"}, core.KeepFirst)
//
// Functions that convert a single column take its values and return a new
// slice, leaving the caller to decide where the result goes:
//
//	vals, _ := f.Column("amount")
//	amounts := core.CleanNumericColumn(rec, vals, core.DefaultNumericOptions())
//
// # Missing Values
//
// The missing value is the empty string in text columns, NaN in numeric
// results, and an invalid pgtype value in boolean and date results.
//
// # Errors
//
// Unknown columns wrap [frame.ErrColumnNotFound]. Bad arguments wrap the
// sentinels declared next to the function that checks them, such as
// [ErrUnknownStrategy] and [ErrInvalidKeep].
package core
