// Package models defines the core domain records for groupsplit.
//
// # Participants
//
// A participant in an expense is either an active member linked to a user
// account, or a pending member known only by the email they were invited
// with. The two are kept apart by [Participant], a tagged reference that
// never compares equal across kinds, so an account id and a pending member
// row id can never be confused when splits are matched to members.
//
// # Ledger
//
// Expenses and their splits form an append-mostly ledger. Balances are never
// stored; they are recomputed from the full history on every read. Paying a
// debt is recorded as a new expense (see [Settlement]) rather than by editing
// past rows.
package models
