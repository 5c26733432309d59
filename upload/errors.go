package upload

import (
	"errors"
	"fmt"
)

var (
	// ErrGraphRepositoryRequired is returned when a graph repository is not provided.
	ErrGraphRepositoryRequired = errors.New("graph repository required")

	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrScraperRequired is returned when a scraper is not provided.
	ErrScraperRequired = errors.New("scraper required")

	// ErrProcessorFactoryRequired is returned when a processor factory is not provided.
	ErrProcessorFactoryRequired = errors.New("processor factory required")

	// ErrScraperURLRequired is returned when the scraper client has no base URL.
	ErrScraperURLRequired = errors.New("scraper base URL required")

	// ErrNoFiles is returned when a session is set up without files.
	ErrNoFiles = errors.New("at least one file is required")

	// ErrNilSession is returned when streaming is requested without a session.
	ErrNilSession = errors.New("session is nil")

	// ErrScraperTimeout is returned when the scraper does not answer with
	// response headers within the configured timeout.
	ErrScraperTimeout = errors.New("scraper did not respond in time")
)

// ScraperError is returned when the scraper rejects an upload.
// It is fatal: no chunk has been scheduled when it is returned.
type ScraperError struct {
	StatusCode int
	Detail     string
}

func (e *ScraperError) Error() string {
	return fmt.Sprintf("scraper error (status %d): %s", e.StatusCode, e.Detail)
}
