package logging

import "context"

// Context keys for draft log fields.
type contextKey string

const (
	// DraftKeyKey is the context key for the draft storage key.
	DraftKeyKey contextKey = "draft_key"

	// WriterKey is the context key for the writer instance id.
	WriterKey contextKey = "writer_id"
)

// WithDraftKey adds a draft key to the context.
func WithDraftKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, DraftKeyKey, key)
}

// DraftKey retrieves the draft key from the context.
func DraftKey(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if key, ok := ctx.Value(DraftKeyKey).(string); ok {
		return key
	}
	return ""
}

// WithWriter adds a writer instance id to the context.
func WithWriter(ctx context.Context, writerID string) context.Context {
	return context.WithValue(ctx, WriterKey, writerID)
}

// Writer retrieves the writer instance id from the context.
func Writer(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(WriterKey).(string); ok {
		return id
	}
	return ""
}
