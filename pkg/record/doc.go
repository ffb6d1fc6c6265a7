// Package record defines the shipment record captured by the booking wizard and
// the dotted field-path addressing used by validation schemas and the progress
// tracker.
//
// # Field Paths
//
// A FieldPath addresses a leaf value inside the nested record, using the same
// camelCase keys the record carries on the wire:
//
//	origin.contactInfo.email
//	package.weight.value
//	package.dimensions.height
//
// Paths are resolved with Resolve, which walks structs (by json tag), string-keyed
// maps, and pointers. Resolution distinguishes two situations that look alike to
// a caller:
//
//   - A value that has not been entered yet (nil pointer, missing map key) resolves
//     to nil with no error. Rules treat this as "undefined".
//   - A path that names a field the record does not have returns an error wrapping
//     ErrPathNotFound, with a suggestion for the closest known field.
//
// # Ownership
//
// The record is owned by the UI layer. Everything in this module reads it through
// the Lookup interface and never mutates it. Incremental validation substitutes a
// single candidate value with Overlay rather than copying the record.
package record
