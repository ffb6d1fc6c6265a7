package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"mercator-hq/waybill/pkg/cli"
	"mercator-hq/waybill/pkg/draft"
	"mercator-hq/waybill/pkg/progress"
	"mercator-hq/waybill/pkg/validation"
)

// newTestCmd returns a command whose stdout is captured and whose logs and
// status lines are discarded.
func newTestCmd() (*cobra.Command, *bytes.Buffer) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	return cmd, &out
}

// useTestConfig points the global flags at a config with a throwaway SQLite
// draft database.
func useTestConfig(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	cfg := `
drafts:
  backend: sqlite
  sqlite:
    path: ` + filepath.Join(dir, "drafts.db") + `
telemetry:
  logging:
    level: error
`
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}

	cfgFile, outputFormat, verbose = path, "text", false
	t.Cleanup(func() { cfgFile, outputFormat = "", "text" })
}

func wantExitCode(t *testing.T, err error, code int) {
	t.Helper()
	var exit *cli.ExitError
	if !errors.As(err, &exit) {
		t.Fatalf("err = %v, want *cli.ExitError", err)
	}
	if exit.Code != code {
		t.Errorf("exit code = %d, want %d", exit.Code, code)
	}
}

func TestValidateRecord_Valid(t *testing.T) {
	useTestConfig(t)
	validateFlags.file = "testdata/valid-shipment.yaml"
	validateFlags.field, validateFlags.value = "", ""

	cmd, out := newTestCmd()
	if err := validateRecord(cmd, nil); err != nil {
		t.Fatalf("validateRecord() error = %v\n%s", err, out)
	}
	if !strings.Contains(out.String(), "✓ Record valid") {
		t.Errorf("output:\n%s", out)
	}
}

func TestValidateRecord_SameZIP(t *testing.T) {
	useTestConfig(t)
	validateFlags.file = "testdata/same-zip.json"
	validateFlags.field, validateFlags.value = "", ""

	cmd, out := newTestCmd()
	wantExitCode(t, validateRecord(cmd, nil), 2)
	if !strings.Contains(out.String(), "Origin and destination ZIP codes cannot be the same.") {
		t.Errorf("output:\n%s", out)
	}
}

func TestValidateRecord_SingleField(t *testing.T) {
	useTestConfig(t)
	validateFlags.file = "testdata/valid-shipment.yaml"
	validateFlags.field = "destination.zip"
	validateFlags.value = "62701"
	defer func() { validateFlags.field, validateFlags.value = "", "" }()

	cmd, out := newTestCmd()
	wantExitCode(t, validateRecord(cmd, nil), 2)
	if !strings.Contains(out.String(), "cannot be the same") {
		t.Errorf("output:\n%s", out)
	}
}

func TestValidateRecord_UnknownField(t *testing.T) {
	useTestConfig(t)
	validateFlags.file = "testdata/valid-shipment.yaml"
	validateFlags.field = "destination.zipp"
	validateFlags.value = "1"
	defer func() { validateFlags.field, validateFlags.value = "", "" }()

	cmd, _ := newTestCmd()
	err := validateRecord(cmd, nil)
	if err == nil || !strings.Contains(err.Error(), "Did you mean 'zip'") {
		t.Errorf("err = %v, want suggestion", err)
	}
}

func TestValidateRecord_JSONOutput(t *testing.T) {
	useTestConfig(t)
	outputFormat = "json"
	validateFlags.file = "testdata/valid-shipment.yaml"
	validateFlags.field, validateFlags.value = "", ""

	cmd, out := newTestCmd()
	if err := validateRecord(cmd, nil); err != nil {
		t.Fatalf("validateRecord() error = %v", err)
	}

	var res validation.Result
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if !res.IsValid || len(res.Errors) != 0 {
		t.Errorf("result = %+v", res)
	}
}

func TestShowProgress(t *testing.T) {
	useTestConfig(t)
	progressFlags.file = "testdata/partial-shipment.yaml"
	progressFlags.step = ""

	cmd, out := newTestCmd()
	if err := showProgress(cmd, nil); err != nil {
		t.Fatalf("showProgress() error = %v", err)
	}
	for _, want := range []string{"33%", "6 of 18 required fields", "Next: destination.address", "✓ origin"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestShowProgress_Step(t *testing.T) {
	useTestConfig(t)
	progressFlags.file = "testdata/partial-shipment.yaml"
	defer func() { progressFlags.step = "" }()

	progressFlags.step = "origin"
	cmd, _ := newTestCmd()
	if err := showProgress(cmd, nil); err != nil {
		t.Errorf("origin step should be complete: %v", err)
	}

	progressFlags.step = "package"
	cmd, _ = newTestCmd()
	wantExitCode(t, showProgress(cmd, nil), 2)

	progressFlags.step = "payment"
	cmd, _ = newTestCmd()
	if err := showProgress(cmd, nil); err == nil || !strings.Contains(err.Error(), "unknown step") {
		t.Errorf("err = %v, want unknown step", err)
	}
}

func TestShowProgress_JSON(t *testing.T) {
	useTestConfig(t)
	outputFormat = "json"
	progressFlags.file = "testdata/valid-shipment.yaml"
	progressFlags.step = ""

	cmd, out := newTestCmd()
	if err := showProgress(cmd, nil); err != nil {
		t.Fatal(err)
	}
	var p progress.FormProgress
	if err := json.Unmarshal(out.Bytes(), &p); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if p.Percentage != 100 || p.NextIncompleteField != nil || p.CompletionStatus != progress.StatusComplete {
		t.Errorf("progress = %+v", p)
	}
}

func setDraftFlags(key, file, writer string, force bool) {
	draftFlags.key, draftFlags.file, draftFlags.writer, draftFlags.force = key, file, writer, force
}

func TestDraftLifecycle(t *testing.T) {
	useTestConfig(t)
	defer setDraftFlags("", "", "", false)

	setDraftFlags("booking-42", "testdata/valid-shipment.yaml", "tab-1", false)
	cmd, _ := newTestCmd()
	if err := saveDraft(cmd, nil); err != nil {
		t.Fatalf("saveDraft() error = %v", err)
	}

	cmd, out := newTestCmd()
	if err := loadDraft(cmd, nil); err != nil {
		t.Fatalf("loadDraft() error = %v", err)
	}
	if !strings.Contains(out.String(), `"zip": "94105"`) {
		t.Errorf("loaded draft:\n%s", out)
	}

	cmd, out = newTestCmd()
	if err := draftInfo(cmd, nil); err != nil {
		t.Fatalf("draftInfo() error = %v", err)
	}
	for _, want := range []string{"Key:       booking-42", "Version:   1.0", "Writer:    tab-1"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("info missing %q:\n%s", want, out)
		}
	}

	cmd, out = newTestCmd()
	if err := listDrafts(cmd, nil); err != nil {
		t.Fatalf("listDrafts() error = %v", err)
	}
	if strings.TrimSpace(out.String()) != "booking-42" {
		t.Errorf("list = %q", out)
	}

	cmd, _ = newTestCmd()
	if err := clearDraft(cmd, nil); err != nil {
		t.Fatalf("clearDraft() error = %v", err)
	}
	cmd, _ = newTestCmd()
	if err := loadDraft(cmd, nil); !errors.Is(err, draft.ErrNotFound) {
		t.Errorf("load after clear = %v, want ErrNotFound", err)
	}
}

func TestDraftConflict(t *testing.T) {
	useTestConfig(t)
	defer setDraftFlags("", "", "", false)

	setDraftFlags("shared", "testdata/valid-shipment.yaml", "tab-1", false)
	cmd, _ := newTestCmd()
	if err := saveDraft(cmd, nil); err != nil {
		t.Fatalf("saveDraft() error = %v", err)
	}

	// Same data from another tab is not a conflict.
	setDraftFlags("shared", "testdata/valid-shipment.yaml", "tab-2", false)
	outputFormat = "json"
	cmd, out := newTestCmd()
	if err := checkConflict(cmd, nil); err != nil {
		t.Fatalf("checkConflict() error = %v", err)
	}
	var v conflictVerdict
	if err := json.Unmarshal(out.Bytes(), &v); err != nil {
		t.Fatal(err)
	}
	if v.Conflict || v.Owner != "tab-1" {
		t.Errorf("verdict = %+v, want no conflict owned by tab-1", v)
	}

	// Different data from another tab is.
	setDraftFlags("shared", "testdata/same-zip.json", "tab-2", false)
	cmd, out = newTestCmd()
	if err := checkConflict(cmd, nil); err != nil {
		t.Fatalf("checkConflict() error = %v", err)
	}
	v = conflictVerdict{}
	if err := json.Unmarshal(out.Bytes(), &v); err != nil {
		t.Fatal(err)
	}
	if !v.Conflict {
		t.Errorf("verdict = %+v, want conflict", v)
	}

	cmd, _ = newTestCmd()
	err := saveDraft(cmd, nil)
	var ce *draft.ConflictError
	if !errors.As(err, &ce) || ce.Owner != "tab-1" {
		t.Fatalf("save = %v, want ConflictError owned by tab-1", err)
	}

	setDraftFlags("shared", "testdata/same-zip.json", "tab-2", true)
	cmd, _ = newTestCmd()
	if err := saveDraft(cmd, nil); err != nil {
		t.Fatalf("forced save error = %v", err)
	}
}

func TestPruneDrafts(t *testing.T) {
	useTestConfig(t)
	defer setDraftFlags("", "", "", false)

	setDraftFlags("fresh", "testdata/valid-shipment.yaml", "", false)
	cmd, _ := newTestCmd()
	if err := saveDraft(cmd, nil); err != nil {
		t.Fatal(err)
	}

	cmd, out := newTestCmd()
	if err := pruneDrafts(cmd, nil); err != nil {
		t.Fatalf("pruneDrafts() error = %v", err)
	}
	if !strings.Contains(out.String(), "Pruned 0 draft(s)") {
		t.Errorf("output = %q", out)
	}
}
