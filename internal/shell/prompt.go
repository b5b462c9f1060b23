package shell

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
)

var (
	trueAnswers  = map[string]bool{"true": true, "t": true, "yes": true, "y": true, "1": true}
	falseAnswers = map[string]bool{"false": true, "f": true, "no": true, "n": true, "0": true}
)

// readLine prints prompt and returns the trimmed reply. io.EOF means input is exhausted.
func (s *Shell) readLine(prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(s.in.Text()), nil
}

func (s *Shell) warn(format string, args ...interface{}) {
	fmt.Fprintln(s.out, s.styles.warn.Render(fmt.Sprintf(format, args...)))
}

// promptText asks until the reply is usable as a title or director.
func (s *Shell) promptText(prompt, field string) (string, error) {
	for {
		line, err := s.readLine(prompt)
		if err != nil {
			return "", err
		}
		if line == "" {
			s.warn("This field cannot be empty. Please enter a value.")
			continue
		}
		if err := domain.CheckText(field, line); err != nil {
			s.warn("%v", err)
			continue
		}
		return line, nil
	}
}

func (s *Shell) promptOptionalText(prompt, field, current string) (string, error) {
	for {
		line, err := s.readLine(prompt)
		if err != nil {
			return "", err
		}
		if line == "" {
			return current, nil
		}
		if err := domain.CheckText(field, line); err != nil {
			s.warn("%v", err)
			continue
		}
		return line, nil
	}
}

func (s *Shell) promptInt(prompt string, min, max int) (int, error) {
	return s.promptOptionalIntOr(prompt, min, max, nil)
}

func (s *Shell) promptOptionalInt(prompt string, min, max, current int) (int, error) {
	return s.promptOptionalIntOr(prompt, min, max, &current)
}

func (s *Shell) promptOptionalIntOr(prompt string, min, max int, current *int) (int, error) {
	for {
		line, err := s.readLine(prompt)
		if err != nil {
			return 0, err
		}
		if line == "" && current != nil {
			return *current, nil
		}
		val, err := strconv.Atoi(line)
		switch {
		case err != nil:
			s.warn("Invalid integer. Please enter a valid number.")
		case val < min:
			s.warn("Value must be at least %d", min)
		case val > max:
			s.warn("Value must be at most %d", max)
		default:
			return val, nil
		}
	}
}

func (s *Shell) promptFloat(prompt string, min, max float64) (float64, error) {
	return s.promptOptionalFloatOr(prompt, min, max, nil)
}

func (s *Shell) promptOptionalFloat(prompt string, min, max, current float64) (float64, error) {
	return s.promptOptionalFloatOr(prompt, min, max, &current)
}

func (s *Shell) promptOptionalFloatOr(prompt string, min, max float64, current *float64) (float64, error) {
	for {
		line, err := s.readLine(prompt)
		if err != nil {
			return 0, err
		}
		if line == "" && current != nil {
			return *current, nil
		}
		val, err := strconv.ParseFloat(line, 64)
		switch {
		case err != nil || math.IsNaN(val):
			s.warn("Invalid decimal number. Please enter a valid number.")
		case val < min:
			s.warn("Value must be at least %.1f", min)
		case val > max:
			s.warn("Value must be at most %.1f", max)
		default:
			return val, nil
		}
	}
}

func (s *Shell) promptBool(prompt string) (bool, error) {
	return s.promptOptionalBoolOr(prompt, nil)
}

func (s *Shell) promptOptionalBool(prompt string, current bool) (bool, error) {
	return s.promptOptionalBoolOr(prompt, &current)
}

func (s *Shell) promptOptionalBoolOr(prompt string, current *bool) (bool, error) {
	for {
		line, err := s.readLine(prompt)
		if err != nil {
			return false, err
		}
		line = strings.ToLower(line)
		switch {
		case line == "" && current != nil:
			return *current, nil
		case trueAnswers[line]:
			return true, nil
		case falseAnswers[line]:
			return false, nil
		}
		s.warn("Please answer true/false, yes/no, y/n, or 1/0.")
	}
}
