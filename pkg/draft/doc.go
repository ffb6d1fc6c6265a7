// Package draft persists in-progress shipment records so a user can leave the
// booking wizard and come back.
//
// A Store keeps each draft under the caller's key plus three derived keys:
//
//	draft-1            JSON payload
//	draft-1_timestamp  last save, epoch milliseconds
//	draft-1_version    payload version tag ("1.0")
//	draft-1_instance   writer instance id of the last owner
//
// The Store runs over any KV backend: MemoryKV (tests, single process),
// SQLiteKV or BadgerKV (durable). Backends enforce an optional byte quota and
// fail with ErrQuotaExceeded rather than dropping data.
//
// # Errors
//
// Storage faults are returned as *StorageError and can be inspected with
// errors.Is:
//
//	if errors.Is(err, draft.ErrQuotaExceeded) {
//	    // ask the user to free space
//	}
//
// A draft whose payload no longer parses is removed on Load, together with its
// derived keys, and reported as absent.
package draft
