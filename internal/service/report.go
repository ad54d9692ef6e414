package service

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/haatos/simple-qa/internal/util"
)

const (
	batchReportFileName = "report.json"
	reportPollInterval  = 200 * time.Millisecond
	reportPollTimeout   = 5 * time.Second
)

func RunReportFileName(runID string) string {
	return "report_" + runID + ".json"
}

func NewReportMerger(reportsDir string) *ReportMerger {
	return &ReportMerger{reportsDir: reportsDir}
}

// ReportMerger folds the per-run report files of a finished batch into the
// single batch report file.
type ReportMerger struct {
	reportsDir string
}

func (m *ReportMerger) RunReportPath(runID string) string {
	return filepath.Join(m.reportsDir, RunReportFileName(runID))
}

func (m *ReportMerger) BatchReportPath() string {
	return filepath.Join(m.reportsDir, batchReportFileName)
}

func (m *ReportMerger) ReportsDir() string {
	return m.reportsDir
}

// WaitForReport polls until the run's report file exists with a stable size,
// bounded by reportPollTimeout. The worker writes the file asynchronously, so
// absence within the bound is not an error.
func (m *ReportMerger) WaitForReport(runID string) bool {
	return waitForStableFile(m.RunReportPath(runID), reportPollTimeout)
}

func waitForStableFile(path string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	lastSize := int64(-1)
	for time.Now().Before(deadline) {
		info, err := os.Stat(path)
		if err == nil && info.Size() > 0 && info.Size() == lastSize {
			return true
		}
		if err == nil {
			lastSize = info.Size()
		}
		time.Sleep(reportPollInterval)
	}
	return false
}

// ArchiveReports zips the reports directory for download.
func (m *ReportMerger) ArchiveReports() (string, error) {
	return util.ArchiveDirectory(m.reportsDir, ".")
}

// MergeBatchReports reads each run's report file, appends its feature entries
// to the batch report and removes the individual file. Missing or unreadable
// files are skipped. The batch report is overwritten, not appended to.
func (m *ReportMerger) MergeBatchReports(runIDs []string) error {
	merged := make([]json.RawMessage, 0)

	for _, runID := range runIDs {
		p := m.RunReportPath(runID)
		m.WaitForReport(runID)

		if exists, _ := util.PathExists(p); !exists {
			continue
		}
		b, err := os.ReadFile(p)
		if err != nil {
			log.Printf("err reading run report %s: %+v\n", p, err)
			continue
		}
		entries := make([]json.RawMessage, 0)
		if err := json.Unmarshal(b, &entries); err != nil {
			log.Printf("err parsing run report %s: %+v\n", p, err)
			continue
		}
		merged = append(merged, entries...)

		if err := os.Remove(p); err != nil {
			log.Printf("err removing run report %s: %+v\n", p, err)
		}
	}

	b, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.BatchReportPath(), b, 0o644)
}
