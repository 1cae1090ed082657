// Package journal records lesson build runs in a small SQLite database.
//
// Each run gets one row that advances through the orchestrator states and ends
// with a status, the list of regenerated assets, and the failure message if the
// run aborted. The journal is advisory: staleness is always decided from the
// filesystem, never from journal contents.
package journal
