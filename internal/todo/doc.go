// Package todo parses and serializes the vault task file (todo.txt).
//
// The task file is line oriented. Every non-blank line is one task; a leading
// "x " marks the task as completed. Two schema versions exist:
//
// Schema 1 (subtasks) nests children under the preceding task:
//
//	Write quarterly report due:2024-01-10
//	  - Collect numbers
//	  x - Draft outline
//	x Book flights
//
// Schema 2 (tagged) carries todo.txt style metadata on each line:
//
//	x (A) 2024-01-01 Write report +Work @Office due:2024-01-10
//
// A vault uses exactly one schema. The schema is chosen by configuration and
// never sniffed from file contents; Migrate converts a task list from one
// schema to the other.
//
// # Token order
//
// Serialize always writes tokens in the same order:
//
//	[x] [(P)] [created] title [+project...] [@context...] [due:value]
//
// so text produced by Serialize survives Parse followed by Serialize byte for
// byte. Item IDs are positional and are renumbered on every parse.
//
// # Malformed lines
//
// ParseLine reports a LineResult per line. Parse drops lines that fail to
// parse (and any subtasks that follow them) so that one bad line never hides
// the rest of the file. ParseReport returns the dropped lines for diagnostics.
package todo
