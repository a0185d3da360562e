package entity

import (
	"time"
)

// Report human-readable rendering of one frame
type Report struct {
	Summary string
	Detail  string
}

// ReportRecord report kept in the history
type ReportRecord struct {
	ID             uint64    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Device         string    `json:"device"`
	CapturedLength int       `json:"captured_length"`
	OriginalLength int       `json:"original_length"`
	Summary        string    `json:"summary"`
	Detail         string    `json:"detail"`
}

// NewReportRecord joins a report with the metadata of the frame it was built from.
func NewReportRecord(frame *Frame, report *Report) *ReportRecord {
	return &ReportRecord{
		Timestamp:      frame.Timestamp,
		Device:         frame.Device,
		CapturedLength: frame.CapturedLength,
		OriginalLength: frame.OriginalLength,
		Summary:        report.Summary,
		Detail:         report.Detail,
	}
}

type ReportHistory interface {
	Add(rec *ReportRecord) uint64
	List(limit int) []*ReportRecord
	Get(id uint64) (*ReportRecord, error)
	Len() int
}

// ReportHandler receives every report produced by a capture session.
type ReportHandler func(rec *ReportRecord)
