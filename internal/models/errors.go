package models

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the search, resolve and export paths.
var (
	// ErrSourceUnavailable means a platform search failed or timed out; the
	// aggregation treats it as an empty contribution.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrNoResults means nothing matched the query on any source.
	ErrNoResults = errors.New("no results")

	// ErrUnresolvedMatch means a song could not be found on the target platform.
	ErrUnresolvedMatch = errors.New("unresolved match")

	// ErrExportPartialFailure means a batch of tracks could not be added to an exported playlist.
	ErrExportPartialFailure = errors.New("export partially failed")

	// ErrFatalConfig means required credentials or configuration are missing.
	ErrFatalConfig = errors.New("missing required configuration")

	// ErrUnknownPlatform means no adapter is registered for the requested platform.
	ErrUnknownPlatform = errors.New("unknown platform")
)

// AddTracksError reports a batch add that failed part way. Added is the
// number of tracks from the batch that reached the playlist before the failure.
type AddTracksError struct {
	Platform Source
	Added    int
	Err      error
}

func (e *AddTracksError) Error() string {
	return fmt.Sprintf("%s: adding tracks failed after %d: %v", e.Platform, e.Added, e.Err)
}

func (e *AddTracksError) Unwrap() error {
	return e.Err
}
