// Package codec converts between catalog file lines and domain.Movie values.
//
// The format is plain comma separated text with no quoting, so text fields must not
// contain commas. domain.NewMovie enforces that for values built outside the codec.
package codec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
)

// Header is written as the first line of every saved catalog file.
const Header = "title,year,director,rating,runtimeMinutes,votes,watched"

// FieldCount is the number of fields in one record line.
const FieldCount = 7

var watchedTokens = map[string]bool{
	"true": true, "yes": true, "y": true, "1": true,
	"false": false, "no": false, "n": false, "0": false,
}

// IsHeader reports whether line looks like a header. Only the first line of a file is checked.
func IsHeader(line string) bool {
	return strings.Contains(strings.ToLower(line), "title")
}

// Parse validates one record line field by field and stops at the first problem.
// The returned error is always a *domain.FormatError.
func Parse(line string) (domain.Movie, error) {
	parts := strings.Split(line, domain.Delimiter)
	if len(parts) != FieldCount {
		return domain.Movie{}, &domain.FormatError{
			Field:  "line",
			Value:  line,
			Reason: fmt.Sprintf("expected %d fields but found %d", FieldCount, len(parts)),
		}
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	var m domain.Movie

	m.Title = parts[0]
	if err := domain.CheckText("title", m.Title); err != nil {
		return domain.Movie{}, err
	}

	year, err := parseInt("year", parts[1])
	if err != nil {
		return domain.Movie{}, err
	}
	if err := domain.CheckYear(year); err != nil {
		return domain.Movie{}, withRaw(err, parts[1])
	}
	m.Year = year

	m.Director = parts[2]
	if err := domain.CheckText("director", m.Director); err != nil {
		return domain.Movie{}, err
	}

	rating, err := strconv.ParseFloat(parts[3], 64)
	if err != nil {
		return domain.Movie{}, &domain.FormatError{Field: "rating", Value: parts[3], Reason: "is not a valid number"}
	}
	if err := domain.CheckRating(rating); err != nil {
		return domain.Movie{}, withRaw(err, parts[3])
	}
	m.Rating = rating

	runtime, err := parseInt("runtimeMinutes", parts[4])
	if err != nil {
		return domain.Movie{}, err
	}
	if err := domain.CheckRuntime(runtime); err != nil {
		return domain.Movie{}, withRaw(err, parts[4])
	}
	m.RuntimeMinutes = runtime

	votes, err := parseInt("votes", parts[5])
	if err != nil {
		return domain.Movie{}, err
	}
	if err := domain.CheckVotes(votes); err != nil {
		return domain.Movie{}, withRaw(err, parts[5])
	}
	m.Votes = votes

	watched, ok := watchedTokens[strings.ToLower(parts[6])]
	if !ok {
		return domain.Movie{}, &domain.FormatError{
			Field:  "watched",
			Value:  parts[6],
			Reason: "must be true/false or yes/no or y/n or 1/0",
		}
	}
	m.Watched = watched

	return m, nil
}

// Format renders m in Parse's field order. Rating keeps one decimal.
func Format(m domain.Movie) string {
	return fmt.Sprintf("%s,%d,%s,%.1f,%d,%d,%t",
		m.Title, m.Year, m.Director, m.Rating, m.RuntimeMinutes, m.Votes, m.Watched)
}

// parseInt accepts 32-bit integers only, the same range the shell prompts allow.
func parseInt(field, raw string) (int, error) {
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, &domain.FormatError{Field: field, Value: raw, Reason: "is not a valid integer"}
	}
	return int(n), nil
}

// withRaw swaps the re-rendered number in a range error for the text the line actually held.
func withRaw(err error, raw string) error {
	if fe, ok := err.(*domain.FormatError); ok {
		return &domain.FormatError{Field: fe.Field, Value: raw, Reason: fe.Reason}
	}
	return err
}
