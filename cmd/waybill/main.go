// Waybill validates shipment bookings and keeps in-progress drafts.
//
// It exposes the booking core used by the booking form:
//   - Field, cross-field and business-rule validation of a shipment record
//   - Required-field progress and step gating
//   - Persisted drafts with conflict detection between writers
//   - Debounced auto-save of a record file as it is edited
//
// Usage:
//
//	# Validate a record
//	waybill validate --file shipment.yaml
//
//	# Validate one field as if it had been typed into the form
//	waybill validate --file shipment.yaml --field origin.zip --value 10001
//
//	# Show completion progress
//	waybill progress --file shipment.yaml
//
//	# Save and restore drafts
//	waybill draft save --key booking-42 --file shipment.yaml
//	waybill draft load --key booking-42
//
//	# Validate, track and auto-save a record while it is edited
//	waybill watch --file shipment.yaml --key booking-42
package main

func main() {
	Execute()
}
