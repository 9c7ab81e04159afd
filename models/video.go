package models

import (
	"fmt"
	"time"
)

// Source identifies the portal a video was discovered on.
type Source string

const (
	SourceHouse  Source = "house"
	SourceSenate Source = "senate"
)

func (s Source) Valid() bool {
	return s == SourceHouse || s == SourceSenate
}

// Title returns the capitalized form used in display names.
func (s Source) Title() string {
	if s == "" {
		return ""
	}
	str := string(s)
	if str[0] >= 'a' && str[0] <= 'z' {
		return string(str[0]-'a'+'A') + str[1:]
	}
	return str
}

// VideoReference is a discovered candidate video. It lives for one run:
// discovery builds it, the pipeline consumes it.
type VideoReference struct {
	Source      Source
	Locator     string
	RawLocator  string
	Category    string
	PublishedAt time.Time
}

// DisplayName derives the human-readable record name, e.g.
// "Judiciary Committee (House 2025-03-06)".
func (r VideoReference) DisplayName() string {
	base := fmt.Sprintf("%s %s", r.Source.Title(), r.PublishedAt.Format("2006-01-02"))
	if r.Category != "" {
		return fmt.Sprintf("%s (%s)", r.Category, base)
	}
	return base
}

// VideoRecord is the durable result of a successfully processed reference.
// Records are written once and never updated.
type VideoRecord struct {
	ID          string
	Name        string
	Source      Source
	Locator     string
	PublishedAt time.Time
	Transcript  string
	ProcessedAt time.Time
}
