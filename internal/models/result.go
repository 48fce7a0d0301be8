package models

import "gotick/internal/engine"

type FileStatus string

const (
	StatusInstrumented FileStatus = "instrumented"
	StatusUnchanged    FileStatus = "unchanged"
	StatusFailed       FileStatus = "failed"
	StatusSkipped      FileStatus = "skipped"
)

type FileResult struct {
	File      string                 `json:"file"`
	Output    string                 `json:"output,omitempty"`
	Status    FileStatus             `json:"status"`
	Calls     int                    `json:"calls"`
	Ticks     int                    `json:"ticks"`
	Functions []engine.FunctionStats `json:"functions,omitempty"`
	Formatted bool                   `json:"formatted"`
	Error     string                 `json:"error,omitempty"`
}

type RunResult struct {
	Files         []FileResult       `json:"files"`
	TotalCalls    int                `json:"total_calls"`
	TotalTicks    int                `json:"total_ticks"`
	FilesByStatus map[FileStatus]int `json:"files_by_status"`
	DryRun        bool               `json:"dry_run"`
	RunDuration   string             `json:"run_duration"`
}

func NewRunResult() *RunResult {
	return &RunResult{
		Files:         make([]FileResult, 0),
		FilesByStatus: make(map[FileStatus]int),
	}
}

func (rr *RunResult) AddFile(fr FileResult) {
	rr.Files = append(rr.Files, fr)
	rr.TotalCalls += fr.Calls
	rr.TotalTicks += fr.Ticks
	rr.FilesByStatus[fr.Status]++
}

// Failed returns the number of files that could not be instrumented.
func (rr *RunResult) Failed() int {
	return rr.FilesByStatus[StatusFailed]
}
