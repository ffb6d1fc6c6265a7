// Package logging builds the structured logger used across Waybill.
//
// It wraps log/slog with:
//   - JSON or text output at a configurable level
//   - Redaction of contact details (emails, phone numbers) in attribute values
//   - Draft key and writer id propagation from the context
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:     "info",
//	    Format:    "json",
//	    RedactPII: true,
//	})
//
//	ctx = logging.WithDraftKey(ctx, "draft-1")
//	logger.InfoContext(ctx, "draft saved", "bytes", 812)
//	// {"level":"INFO","msg":"draft saved","bytes":812,"draft_key":"draft-1"}
package logging
