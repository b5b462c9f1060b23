package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Bounds enforced on every Movie.
const (
	MinYear   = 1888
	MinRating = 0.0
	MaxRating = 10.0

	// Delimiter separates fields in the catalog file. It may not appear inside text fields.
	Delimiter = ","
)

// now is replaceable so tests can pin the calendar year.
var now = time.Now

// CurrentYear returns the upper bound for Movie.Year, read from the clock on every call.
func CurrentYear() int {
	return now().Year()
}

// Movie is one catalog entry. It is a plain value: copies never share state, and a
// stored Movie is only ever replaced, never mutated.
type Movie struct {
	Title          string
	Year           int
	Director       string
	Rating         float64
	RuntimeMinutes int
	Votes          int
	Watched        bool
}

// NewMovie trims the text fields and returns a validated Movie.
func NewMovie(title string, year int, director string, rating float64, runtimeMinutes, votes int, watched bool) (Movie, error) {
	m := Movie{
		Title:          strings.TrimSpace(title),
		Year:           year,
		Director:       strings.TrimSpace(director),
		Rating:         rating,
		RuntimeMinutes: runtimeMinutes,
		Votes:          votes,
		Watched:        watched,
	}
	if err := m.Validate(); err != nil {
		return Movie{}, err
	}
	return m, nil
}

// Validate checks every field in catalog order and reports the first violation as a *FormatError.
func (m Movie) Validate() error {
	if err := CheckText("title", m.Title); err != nil {
		return err
	}
	if err := CheckYear(m.Year); err != nil {
		return err
	}
	if err := CheckText("director", m.Director); err != nil {
		return err
	}
	if err := CheckRating(m.Rating); err != nil {
		return err
	}
	if err := CheckRuntime(m.RuntimeMinutes); err != nil {
		return err
	}
	return CheckVotes(m.Votes)
}

// CheckText validates a free-text field (title or director).
func CheckText(field, value string) error {
	switch {
	case value == "":
		return &FormatError{Field: field, Value: value, Reason: "is empty"}
	case strings.TrimSpace(value) == "":
		return &FormatError{Field: field, Value: value, Reason: "is blank"}
	case strings.TrimSpace(value) != value:
		return &FormatError{Field: field, Value: value, Reason: "has surrounding whitespace"}
	case strings.Contains(value, Delimiter):
		return &FormatError{Field: field, Value: value, Reason: "must not contain a comma"}
	case strings.ContainsAny(value, "\r\n"):
		return &FormatError{Field: field, Value: value, Reason: "must not contain a line break"}
	}
	return nil
}

// CheckYear accepts years from MinYear through the current year.
func CheckYear(year int) error {
	current := CurrentYear()
	if year < MinYear || year > current {
		return &FormatError{
			Field:  "year",
			Value:  fmt.Sprint(year),
			Reason: fmt.Sprintf("must be between %d and %d", MinYear, current),
		}
	}
	return nil
}

// CheckRating accepts ratings in [MinRating, MaxRating]; NaN is rejected.
func CheckRating(rating float64) error {
	if math.IsNaN(rating) || rating < MinRating || rating > MaxRating {
		return &FormatError{
			Field:  "rating",
			Value:  fmt.Sprint(rating),
			Reason: "must be between 0.0 and 10.0",
		}
	}
	return nil
}

// CheckRuntime accepts a positive 32-bit minute count.
func CheckRuntime(minutes int) error {
	if minutes <= 0 || minutes > math.MaxInt32 {
		return &FormatError{Field: "runtimeMinutes", Value: fmt.Sprint(minutes), Reason: "must be a positive 32-bit integer"}
	}
	return nil
}

// CheckVotes accepts a non-negative 32-bit vote count.
func CheckVotes(votes int) error {
	if votes < 0 || votes > math.MaxInt32 {
		return &FormatError{Field: "votes", Value: fmt.Sprint(votes), Reason: "must be between 0 and 2147483647"}
	}
	return nil
}

// Scariness combines rating, vote count, runtime and watched status into a score in [0, 10].
func (m Movie) Scariness() float64 {
	score := m.Rating
	score += math.Min(float64(m.Votes)/500000.0, 2.0)
	if m.RuntimeMinutes > 120 {
		score += 1.0
	}
	if m.Watched {
		score -= 1.0
	}
	return math.Max(0, math.Min(10, score))
}

// String renders the one-line summary shown by the shell.
func (m Movie) String() string {
	watched := "No"
	if m.Watched {
		watched = "Yes"
	}
	return fmt.Sprintf("%s (%d) - Dir: %s | Rating: %.1f | %d min | Votes: %d | Watched: %s",
		m.Title, m.Year, m.Director, m.Rating, m.RuntimeMinutes, m.Votes, watched)
}
