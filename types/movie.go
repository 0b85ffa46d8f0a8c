// Package types holds the value types shared across lookahead packages.
package types

import "strings"

// FrameVersion is the stdio frame protocol version carried in every outbound frame.
const FrameVersion = "0.3.0"

// Movie is a single search result from the movie search endpoint.
// It is a plain value: two movies are the same result iff they compare equal.
//
// Tags cover both wire formats: JSON from the remote service and
// msgpack on the stdio port.
type Movie struct {
	ID               int64   `json:"id" msgpack:"id" yaml:"id"`
	Title            string  `json:"title" msgpack:"title" yaml:"title"`
	OriginalTitle    string  `json:"original_title" msgpack:"original_title" yaml:"original_title"`
	OriginalLanguage string  `json:"original_language" msgpack:"original_language" yaml:"original_language"`
	Overview         string  `json:"overview" msgpack:"overview" yaml:"overview"`
	ReleaseDate      string  `json:"release_date" msgpack:"release_date" yaml:"release_date"`
	PosterPath       string  `json:"poster_path" msgpack:"poster_path" yaml:"poster_path"`
	Popularity       float64 `json:"popularity" msgpack:"popularity" yaml:"popularity"`
	VoteAverage      float64 `json:"vote_average" msgpack:"vote_average" yaml:"vote_average"`
	VoteCount        int64   `json:"vote_count" msgpack:"vote_count" yaml:"vote_count"`
	Adult            bool    `json:"adult" msgpack:"adult" yaml:"adult"`
}

// Year returns the four-digit release year, or "" when the release date is
// missing or malformed. Release dates arrive as YYYY-MM-DD.
func (m Movie) Year() string {
	year, _, _ := strings.Cut(m.ReleaseDate, "-")
	if len(year) != 4 {
		return ""
	}
	return year
}

// MovieSearchResponse is the body shape of a movie search response.
// Results is a pointer so that a body without a results array can be
// told apart from an empty result set.
type MovieSearchResponse struct {
	Page         int      `json:"page"`
	Results      *[]Movie `json:"results"`
	TotalPages   int      `json:"total_pages"`
	TotalResults int      `json:"total_results"`
}
