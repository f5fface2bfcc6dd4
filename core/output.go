package core

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Printer handles all display output for the CLI. In JSON mode results are
// accumulated and emitted as one document by PrintSummary.
type Printer struct {
	JSON    bool
	Verbose bool
	Writer  io.Writer

	results []*FixResult
}

// NewPrinter creates a default Printer writing to stdout.
func NewPrinter(jsonMode, verbose bool) *Printer {
	return &Printer{JSON: jsonMode, Verbose: verbose, Writer: os.Stdout}
}

// PrintResult renders one per-file outcome.
func (p *Printer) PrintResult(r *FixResult) {
	if p.JSON {
		p.results = append(p.results, r)
		return
	}
	switch r.Outcome {
	case OutcomeFixed:
		fmt.Fprintf(p.Writer, "✓ %s: GPS %s -> %s UTC\n", r.Path, r.OldStamp, r.NewStamp)
	case OutcomeProposed:
		fmt.Fprintf(p.Writer, "  %s: would set GPS %s -> %s UTC\n", r.Path, r.OldStamp, r.NewStamp)
	case OutcomeAlreadyCorrect:
		fmt.Fprintf(p.Writer, "  %s: already correct (GPS %s UTC)\n", r.Path, r.OldStamp)
	case OutcomeNoGPSInfo:
		fmt.Fprintf(p.Writer, "  %s: no GPS date/time stamps\n", r.Path)
	case OutcomeSkipped:
		fmt.Fprintf(p.Writer, "  %s: skipped (%s)\n", r.Path, r.Reason)
	case OutcomeError:
		fmt.Fprintf(os.Stderr, "✗ %s: %s\n", r.Path, r.Reason)
	}
}

// PrintFields renders metadata context lines in verbose text mode.
func (p *Printer) PrintFields(fields []MetaField) {
	if p.JSON || !p.Verbose {
		return
	}
	for _, f := range fields {
		fmt.Fprintf(p.Writer, "    %-20s %s\n", f.Key+":", f.Value)
	}
}

// PrintSummary renders the batch summary; in JSON mode it emits the whole
// accumulated document.
func (p *Printer) PrintSummary(s *Summary) {
	if p.JSON {
		p.printJSON(s)
		return
	}
	fmt.Fprintf(p.Writer, "\n%d file(s): %d fixed, %d already correct, %d without GPS data, %d skipped, %d error(s)\n",
		s.Total(), s.Fixed, s.AlreadyCorrect, s.NoGPSInfo, s.Skipped, s.Errors)
}

func (p *Printer) printJSON(s *Summary) {
	type jsonResult struct {
		Path    string `json:"file"`
		Outcome string `json:"outcome"`
		Old     string `json:"old_gps_stamp,omitempty"`
		New     string `json:"new_gps_stamp,omitempty"`
		Reason  string `json:"reason,omitempty"`
	}
	type jsonOutput struct {
		Results []jsonResult `json:"results"`
		Summary struct {
			Fixed          int `json:"fixed"`
			AlreadyCorrect int `json:"already_correct"`
			NoGPSInfo      int `json:"no_gps_info"`
			Skipped        int `json:"skipped"`
			Errors         int `json:"errors"`
		} `json:"summary"`
	}

	var out jsonOutput
	out.Results = []jsonResult{}
	for _, r := range p.results {
		out.Results = append(out.Results, jsonResult{
			Path:    r.Path,
			Outcome: string(r.Outcome),
			Old:     r.OldStamp,
			New:     r.NewStamp,
			Reason:  r.Reason,
		})
	}
	out.Summary.Fixed = s.Fixed
	out.Summary.AlreadyCorrect = s.AlreadyCorrect
	out.Summary.NoGPSInfo = s.NoGPSInfo
	out.Summary.Skipped = s.Skipped
	out.Summary.Errors = s.Errors

	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Fprintln(p.Writer, string(b))
}

// PrintInfo prints an info line (suppressed in JSON mode).
func (p *Printer) PrintInfo(msg string) {
	if !p.JSON {
		fmt.Fprintln(p.Writer, msg)
	}
}

// PrintError prints an error to stderr.
func PrintError(msg string) {
	fmt.Fprintln(os.Stderr, "✗ Error: "+msg)
}
