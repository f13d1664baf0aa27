// Package report renders bench results and publishes them.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/vango-dev/reactor/internal/workload"
)

// Report is the JSON document produced by a bench run.
type Report struct {
	Tool        string            `json:"tool"`
	Version     string            `json:"version"`
	Profile     string            `json:"profile"`
	GoVersion   string            `json:"go_version"`
	GeneratedAt time.Time         `json:"generated_at"`
	Results     []workload.Result `json:"results"`
}

// New creates a report stamped with the current time.
func New(version, profile string, results []workload.Result) *Report {
	return &Report{
		Tool:        "reactor",
		Version:     version,
		Profile:     profile,
		GoVersion:   runtime.Version(),
		GeneratedAt: time.Now().UTC(),
		Results:     results,
	}
}

// Failed reports whether any result recorded a propagation error.
func (r *Report) Failed() bool {
	for _, res := range r.Results {
		if res.Errors > 0 {
			return true
		}
	}
	return false
}

// WriteJSON writes the indented report to w.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteFile writes the report to path.
func (r *Report) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.WriteJSON(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteTable writes a plain-text summary, one line per result.
func (r *Report) WriteTable(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%-10s %8s %10s %8s %14s %7s\n",
		"WORKLOAD", "SIZE", "WRITES", "NODES", "PER WRITE", "ERRORS"); err != nil {
		return err
	}
	for _, res := range r.Results {
		if _, err := fmt.Fprintf(w, "%-10s %8d %10d %8d %14s %7d\n",
			res.Workload, res.Size, res.Iterations, res.Nodes, res.PerWrite, res.Errors); err != nil {
			return err
		}
	}
	return nil
}
