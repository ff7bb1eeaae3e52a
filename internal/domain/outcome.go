package domain

import (
	"fmt"
	"time"
)

// Classification labels the result of a single fetch.
type Classification string

const (
	ClassOK              Classification = "ok"
	ClassNotFound        Classification = "transient-not-found"
	ClassHTTPError       Classification = "http-error"
	ClassNetworkError    Classification = "network-error"
	ClassDecodeError     Classification = "decode-error"
	ClassFilesystemError Classification = "filesystem-error"
)

// FetchOutcome reports what happened when one instant was fetched.
type FetchOutcome struct {
	Source    string
	Instant   time.Time
	Class     Classification
	Err       error
	Artifacts []string // published paths, set on success
}

// Success reports whether the fetch produced its artifacts.
func (o FetchOutcome) Success() bool { return o.Class == ClassOK }

// Succeeded builds a successful outcome.
func Succeeded(source string, instant time.Time, artifacts []string) FetchOutcome {
	return FetchOutcome{Source: source, Instant: instant, Class: ClassOK, Artifacts: artifacts}
}

// Failed builds a failed outcome. err should describe the failure.
func Failed(source string, instant time.Time, class Classification, err error) FetchOutcome {
	return FetchOutcome{Source: source, Instant: instant, Class: class, Err: err}
}

func (o FetchOutcome) String() string {
	if o.Err != nil {
		return fmt.Sprintf("%s %s %s: %v", o.Source, o.Instant.UTC().Format(time.RFC3339), o.Class, o.Err)
	}
	return fmt.Sprintf("%s %s %s", o.Source, o.Instant.UTC().Format(time.RFC3339), o.Class)
}
