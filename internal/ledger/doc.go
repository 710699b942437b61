// Package ledger persists a history of dispatch runs in SQLite.
//
// Each run row records the directory, worker, batch count, and image count;
// each batch row records the index range, temp directory, worker PID, and the
// launch status. Exit codes are filled in only when the dispatcher waited for
// its workers. The ledger is optional and its failures never abort a dispatch.
package ledger
