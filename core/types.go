// Package core defines the shared types and the output plumbing for
// GPS DateTime Surgery.
package core

// Outcome classifies what happened to one file. Every processed file yields
// exactly one outcome.
type Outcome string

const (
	// OutcomeProposed: the GPS stamps disagree with the capture timestamp
	// and a corrected pair has been computed but not yet written.
	OutcomeProposed Outcome = "proposed-fix"
	// OutcomeFixed: the corrected stamps were written to the file.
	OutcomeFixed Outcome = "fixed"
	// OutcomeAlreadyCorrect: stored stamps match the capture timestamp
	// within tolerance; nothing to do.
	OutcomeAlreadyCorrect Outcome = "already-correct"
	// OutcomeNoGPSInfo: the image carries no usable GPS date/time stamps.
	OutcomeNoGPSInfo Outcome = "no-gps-info"
	// OutcomeSkipped: the file was left alone for a non-error reason
	// (missing capture timestamp, user declined).
	OutcomeSkipped Outcome = "skipped"
	// OutcomeError: the file could not be processed; the batch continues.
	OutcomeError Outcome = "error"
)

// FixResult is the outcome of processing a single file.
type FixResult struct {
	Path    string
	Outcome Outcome

	// OldStamp/NewStamp hold the stored and corrected GPS timestamps in
	// "YYYY:MM:DD HH:MM:SS" UTC form, where known.
	OldStamp string
	NewStamp string

	// Reason explains skipped and error outcomes.
	Reason string
}

// MetaField is a single metadata key-value pair shown in the verbose view.
type MetaField struct {
	Key      string
	Value    string
	Category string
}

// Summary counts outcomes across a batch.
type Summary struct {
	Fixed          int
	Proposed       int
	AlreadyCorrect int
	NoGPSInfo      int
	Skipped        int
	Errors         int
}

// Record tallies one result.
func (s *Summary) Record(r *FixResult) {
	switch r.Outcome {
	case OutcomeFixed:
		s.Fixed++
	case OutcomeProposed:
		s.Proposed++
	case OutcomeAlreadyCorrect:
		s.AlreadyCorrect++
	case OutcomeNoGPSInfo:
		s.NoGPSInfo++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeError:
		s.Errors++
	}
}

// Total returns the number of recorded results.
func (s *Summary) Total() int {
	return s.Fixed + s.Proposed + s.AlreadyCorrect + s.NoGPSInfo + s.Skipped + s.Errors
}
