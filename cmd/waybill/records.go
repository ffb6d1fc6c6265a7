package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
	"mercator-hq/waybill/pkg/config"
	"mercator-hq/waybill/pkg/draft"
	"mercator-hq/waybill/pkg/record"
	"mercator-hq/waybill/pkg/telemetry/metrics"
	"mercator-hq/waybill/pkg/validation"
)

// loadRecord reads a shipment from a .json, .yaml or .yml file. Unknown keys
// are rejected so a misspelled field is reported instead of silently empty.
func loadRecord(path string) (*record.Shipment, error) {
	if path == "" {
		return nil, fmt.Errorf("--file is required")
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("record %q: unsupported extension (use .json, .yaml or .yml)", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read record %q: %w", path, err)
	}

	var s record.Shipment
	switch ext {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&s)
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&s)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse record %q: %w", path, err)
	}
	return &s, nil
}

func newEngine(cfg *config.Config, logger *slog.Logger, collector *metrics.Collector) (*validation.Engine, error) {
	return validation.NewEngine(
		validation.WithBusinessRules(validation.NewBusinessRules(cfg.Validation)),
		validation.WithLogger(logger.With("component", "validation")),
		validation.WithMetrics(collector),
	)
}

// openStore opens the configured draft backend. The caller closes the
// returned KV.
func openStore(cfg *config.Config, logger *slog.Logger, collector *metrics.Collector) (*draft.Store, draft.KV, error) {
	kv, err := draft.Open(cfg.Drafts, logger.With("component", "draft."+cfg.Drafts.Backend))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s draft backend: %w", cfg.Drafts.Backend, err)
	}
	store := draft.NewStore(kv,
		draft.WithLogger(logger.With("component", "draft")),
		draft.WithMetrics(collector),
	)
	return store, kv, nil
}
