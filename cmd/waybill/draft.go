package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"mercator-hq/waybill/pkg/cli"
	"mercator-hq/waybill/pkg/draft"
)

var draftFlags struct {
	key    string
	file   string
	writer string
	force  bool
}

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Manage persisted booking drafts",
	Long: `Save, load and inspect booking drafts in the configured backend.

Drafts are stored under a caller-chosen key together with a save timestamp,
a version tag and the id of the writer that last saved them. A save on behalf
of one writer is refused when another writer owns different data under the
same key, unless --force is given.

Examples:
  waybill draft save --key booking-42 --file shipment.yaml --writer tab-1
  waybill draft load --key booking-42 -o yaml
  waybill draft info --key booking-42
  waybill draft conflict --key booking-42 --writer tab-2 --file shipment.yaml
  waybill draft list
  waybill draft clear --key booking-42`,
}

var draftSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save a record file as a draft",
	RunE:  saveDraft,
}

var draftLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Print a stored draft",
	RunE:  loadDraft,
}

var draftClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete a draft and its metadata",
	RunE:  clearDraft,
}

var draftInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show draft metadata",
	RunE:  draftInfo,
}

var draftListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored draft keys",
	RunE:  listDrafts,
}

var draftConflictCmd = &cobra.Command{
	Use:   "conflict",
	Short: "Check whether saving a record would conflict with another writer",
	RunE:  checkConflict,
}

func init() {
	rootCmd.AddCommand(draftCmd)
	draftCmd.AddCommand(draftSaveCmd, draftLoadCmd, draftClearCmd, draftInfoCmd, draftListCmd, draftConflictCmd)

	for _, c := range []*cobra.Command{draftSaveCmd, draftLoadCmd, draftClearCmd, draftInfoCmd, draftConflictCmd} {
		c.Flags().StringVarP(&draftFlags.key, "key", "k", "", "draft key")
		_ = c.MarkFlagRequired("key")
	}
	for _, c := range []*cobra.Command{draftSaveCmd, draftConflictCmd} {
		c.Flags().StringVarP(&draftFlags.file, "file", "f", "", "record file (.json, .yaml)")
		c.Flags().StringVarP(&draftFlags.writer, "writer", "w", "", "writer instance id")
	}
	draftSaveCmd.Flags().BoolVar(&draftFlags.force, "force", false, "save even when another writer owns different data")
}

// withStore runs fn against the configured draft store.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, e *env, store *draft.Store) error) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	store, kv, err := openStore(e.cfg, e.logger, nil)
	if err != nil {
		return err
	}
	defer kv.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, e, store)
}

func saveDraft(cmd *cobra.Command, args []string) error {
	shipment, err := loadRecord(draftFlags.file)
	if err != nil {
		return err
	}

	return withStore(cmd, func(ctx context.Context, e *env, store *draft.Store) error {
		if draftFlags.writer != "" && !draftFlags.force {
			conflict, err := store.DetectConflict(ctx, draftFlags.key, draftFlags.writer, shipment)
			if err != nil {
				return cli.NewCommandError("draft save", err)
			}
			if conflict {
				owner, _, _ := store.Writer(ctx, draftFlags.key)
				return &draft.ConflictError{Key: draftFlags.key, Owner: owner, Writer: draftFlags.writer}
			}
		}

		if err := store.Save(ctx, draftFlags.key, shipment); err != nil {
			if errors.Is(err, draft.ErrQuotaExceeded) {
				return fmt.Errorf("draft storage is full; clear or prune old drafts: %w", err)
			}
			return cli.NewCommandError("draft save", err)
		}
		if draftFlags.writer != "" {
			if err := store.SetWriter(ctx, draftFlags.key, draftFlags.writer); err != nil {
				return cli.NewCommandError("draft save", err)
			}
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Draft %s saved\n", draftFlags.key)
		return nil
	})
}

func loadDraft(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, e *env, store *draft.Store) error {
		var data any
		found, err := store.Load(ctx, draftFlags.key, &data)
		if err != nil {
			return cli.NewCommandError("draft load", err)
		}
		if !found {
			return fmt.Errorf("draft %q: %w", draftFlags.key, draft.ErrNotFound)
		}

		return e.emit(cmd, data, func() string {
			out, _ := json.MarshalIndent(data, "", "  ")
			return string(out) + "\n"
		})
	})
}

func clearDraft(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, e *env, store *draft.Store) error {
		if err := store.Clear(ctx, draftFlags.key); err != nil {
			return cli.NewCommandError("draft clear", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Draft %s cleared\n", draftFlags.key)
		return nil
	})
}

// draftSummary is the metadata printed by draft info.
type draftSummary struct {
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Writer    string    `json:"writerInstanceId,omitempty"`
	Bytes     int       `json:"bytes"`
}

func draftInfo(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, e *env, store *draft.Store) error {
		entry, err := store.Entry(ctx, draftFlags.key)
		if err != nil {
			return fmt.Errorf("draft %q: %w", draftFlags.key, err)
		}

		s := draftSummary{
			Key:       entry.Key,
			Timestamp: entry.Timestamp,
			Version:   entry.Version,
			Writer:    entry.WriterInstanceID,
			Bytes:     len(entry.SerializedData),
		}
		return e.emit(cmd, s, func() string {
			var b strings.Builder
			fmt.Fprintf(&b, "Key:       %s\n", s.Key)
			fmt.Fprintf(&b, "Saved:     %s\n", s.Timestamp.Format(time.RFC3339))
			fmt.Fprintf(&b, "Version:   %s\n", s.Version)
			if s.Writer != "" {
				fmt.Fprintf(&b, "Writer:    %s\n", s.Writer)
			}
			fmt.Fprintf(&b, "Size:      %d bytes\n", s.Bytes)
			return b.String()
		})
	})
}

func listDrafts(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, e *env, store *draft.Store) error {
		keys, err := store.List(ctx)
		if err != nil {
			return cli.NewCommandError("draft list", err)
		}
		if keys == nil {
			keys = []string{}
		}
		return e.emit(cmd, keys, func() string {
			if len(keys) == 0 {
				return "No drafts\n"
			}
			return strings.Join(keys, "\n") + "\n"
		})
	})
}

// conflictVerdict is printed by draft conflict.
type conflictVerdict struct {
	Key      string `json:"key"`
	Writer   string `json:"writer"`
	Owner    string `json:"owner,omitempty"`
	Conflict bool   `json:"conflict"`
}

func checkConflict(cmd *cobra.Command, args []string) error {
	if draftFlags.writer == "" {
		return fmt.Errorf("--writer is required")
	}
	shipment, err := loadRecord(draftFlags.file)
	if err != nil {
		return err
	}

	return withStore(cmd, func(ctx context.Context, e *env, store *draft.Store) error {
		conflict, err := store.DetectConflict(ctx, draftFlags.key, draftFlags.writer, shipment)
		if err != nil {
			return cli.NewCommandError("draft conflict", err)
		}
		owner, _, err := store.Writer(ctx, draftFlags.key)
		if err != nil {
			return cli.NewCommandError("draft conflict", err)
		}

		v := conflictVerdict{Key: draftFlags.key, Writer: draftFlags.writer, Owner: owner, Conflict: conflict}
		return e.emit(cmd, v, func() string {
			if conflict {
				return fmt.Sprintf("✗ Conflict: %s is owned by %s with different data\n", v.Key, v.Owner)
			}
			return fmt.Sprintf("✓ No conflict for %s\n", v.Key)
		})
	})
}
