// Package progress computes how far a shipment record is from being complete.
//
// Progress is derived from a fixed, ordered list of required fields that is
// curated separately from the validation schema. The first incomplete field in
// that order is the one the wizard jumps to, so Calculate and
// NextIncompleteField share the same list and completeness predicate.
package progress
