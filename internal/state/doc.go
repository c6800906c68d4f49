// Package state models the per-release history of compiled values.
//
// An Entry is one tagged snapshot. Entries whose tag starts with
// CandidatePrefix are candidates; all others are committed. An EntrySet holds
// every entry of a release, kept newest first, and resolves tag expressions
// such as "@latest" or "@candidate" into literal tags.
//
// Nothing in this package talks to a cluster. The backend package loads and
// saves EntrySets.
package state
