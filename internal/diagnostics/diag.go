package diagnostics

import "time"

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

type Diagnostic struct {
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	Track          string         `json:"track,omitempty"`
	Frame          int64          `json:"frame"`
	At             time.Time      `json:"at"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

// TrackFailed describes a track that could not be evaluated at frame.
func TrackFailed(track string, frame int64, err error) Diagnostic {
	d := Diagnostic{
		Severity: Err,
		Code:     "TRACK.EVAL",
		Summary:  "Track evaluation failed",
		Detail:   err.Error(),
		Track:    track,
		Frame:    frame,
		At:       time.Now(),
	}
	return d
}

// TrackRecovered marks a previously failing track as healthy again.
func TrackRecovered(track string, frame int64) Diagnostic {
	return Diagnostic{
		Severity: Info,
		Code:     "TRACK.OK",
		Summary:  "Track recovered",
		Track:    track,
		Frame:    frame,
		At:       time.Now(),
	}
}
