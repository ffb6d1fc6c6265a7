// Package validation implements the schema-driven rule engine behind the
// shipment booking wizard.
//
// Validation runs in three layers, always in this order:
//
//  1. Field rules: a Schema maps each FieldPath to an ordered list of Rules.
//     When several rules of the same severity fail, the last failing rule's
//     message is the one reported, so a schema lists rules from lowest to
//     highest priority.
//  2. Cross-field rules: constraints over two or more fields, keyed in results
//     by the field paths joined with "_". They stay silent until the fields they
//     compare have been entered.
//  3. Business rules: domain policy keyed by a token (serviceArea, valuePerPound,
//     hazmat, insurance). Their findings are merged in and never replace an
//     earlier entry.
//
// Validation faults are values: the Engine never returns an error or panics
// for bad input. A rule that panics is caught once per pass and reported as a
// single "validation" error.
//
// # Usage
//
//	engine, err := validation.NewEngine(
//	    validation.WithBusinessRules(validation.NewBusinessRules(cfg.Validation)),
//	    validation.WithLogger(logger),
//	)
//	if err != nil {
//	    return err
//	}
//
//	res := engine.ValidateAll(&shipment)
//	if !res.IsValid {
//	    for key, msg := range res.Errors { ... }
//	}
//
//	// As the user types in one field:
//	res = engine.ValidateField("destination.zip", "62701", &shipment)
package validation
