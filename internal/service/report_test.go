package service

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReportMerger_MergeBatchReports(t *testing.T) {
	t.Run("success - run reports merged into one batch report", func(t *testing.T) {
		// arrange
		dir := t.TempDir()
		merger := NewReportMerger(dir)

		writeReport := func(runID string, entries []string) {
			raw := make([]json.RawMessage, 0, len(entries))
			for _, e := range entries {
				raw = append(raw, json.RawMessage(e))
			}
			b, err := json.Marshal(raw)
			assert.NoError(t, err)
			assert.NoError(t, os.WriteFile(merger.RunReportPath(runID), b, 0o644))
		}
		writeReport("run-1", []string{`{"feature":"login"}`, `{"feature":"search"}`})
		writeReport("run-2", []string{`{"feature":"checkout"}`})

		// act
		err := merger.MergeBatchReports([]string{"run-1", "run-2"})

		// assert
		assert.NoError(t, err)
		b, err := os.ReadFile(merger.BatchReportPath())
		assert.NoError(t, err)
		merged := make([]map[string]string, 0)
		assert.NoError(t, json.Unmarshal(b, &merged))
		assert.Len(t, merged, 3)
		assert.Equal(t, "login", merged[0]["feature"])
		assert.Equal(t, "search", merged[1]["feature"])
		assert.Equal(t, "checkout", merged[2]["feature"])

		_, err = os.Stat(merger.RunReportPath("run-1"))
		assert.True(t, os.IsNotExist(err))
		_, err = os.Stat(merger.RunReportPath("run-2"))
		assert.True(t, os.IsNotExist(err))
	})
	t.Run("success - unreadable report skipped", func(t *testing.T) {
		dir := t.TempDir()
		merger := NewReportMerger(dir)

		assert.NoError(t, os.WriteFile(
			merger.RunReportPath("run-1"), []byte(`[{"feature":"login"}]`), 0o644,
		))
		assert.NoError(t, os.WriteFile(
			merger.RunReportPath("run-2"), []byte("{not json"), 0o644,
		))

		err := merger.MergeBatchReports([]string{"run-1", "run-2"})

		assert.NoError(t, err)
		b, err := os.ReadFile(merger.BatchReportPath())
		assert.NoError(t, err)
		merged := make([]json.RawMessage, 0)
		assert.NoError(t, json.Unmarshal(b, &merged))
		assert.Len(t, merged, 1)
	})
	t.Run("success - empty batch writes an empty report", func(t *testing.T) {
		dir := t.TempDir()
		merger := NewReportMerger(dir)

		err := merger.MergeBatchReports(nil)

		assert.NoError(t, err)
		b, err := os.ReadFile(merger.BatchReportPath())
		assert.NoError(t, err)
		assert.Equal(t, "[]", string(b))
	})
}

func TestReportMerger_WaitForReport(t *testing.T) {
	t.Run("success - stable file found", func(t *testing.T) {
		dir := t.TempDir()
		merger := NewReportMerger(dir)
		assert.NoError(t, os.WriteFile(
			merger.RunReportPath("run-1"), []byte("[]"), 0o644,
		))

		assert.True(t, merger.WaitForReport("run-1"))
	})
}

func TestReportMerger_Paths(t *testing.T) {
	merger := NewReportMerger("reports")

	assert.Equal(t, "report_run-1.json", RunReportFileName("run-1"))
	assert.Equal(t, filepath.Join("reports", "report_run-1.json"), merger.RunReportPath("run-1"))
	assert.Equal(t, filepath.Join("reports", "report.json"), merger.BatchReportPath())
}
