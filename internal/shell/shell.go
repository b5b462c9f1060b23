// Package shell is the interactive menu front end of the catalog.
package shell

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
	"github.com/Clark-Hu/movie-catalog/internal/store"
)

// maxShownErrors caps how many import errors are printed.
const maxShownErrors = 20

// Catalog is the store surface the shell needs.
type Catalog interface {
	All() []domain.Movie
	Add(m domain.Movie) (int, error)
	RemoveAt(index int) (bool, error)
	Edit(index int, m domain.Movie) (int, bool, error)
	BulkImport(path string) (store.ImportReport, error)
}

type styles struct {
	title  lipgloss.Style
	header lipgloss.Style
	ok     lipgloss.Style
	warn   lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("160")),
		header: lipgloss.NewStyle().Bold(true),
		ok:     lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		warn:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	}
}

// Shell runs the numbered menu over a line-oriented reader and writer.
type Shell struct {
	catalog Catalog
	in      *bufio.Scanner
	out     io.Writer
	styles  styles
}

// New returns a shell reading commands from in and writing to out.
func New(catalog Catalog, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		catalog: catalog,
		in:      bufio.NewScanner(in),
		out:     out,
		styles:  defaultStyles(),
	}
}

// Run shows the menu until the user exits or input ends.
func (s *Shell) Run() error {
	for {
		s.printMenu()
		choice, err := s.readLine("Choose an option (1-7): ")
		if err != nil {
			return s.finish(err)
		}

		switch choice {
		case "1":
			s.ListMovies()
		case "2":
			err = s.AddMovie()
		case "3":
			err = s.DeleteMovie()
		case "4":
			err = s.UploadCSV()
		case "5":
			err = s.EditMovie()
		case "6":
			err = s.ShowScariness()
		case "7":
			return s.finish(nil)
		default:
			s.warn("Invalid option. Please enter a number between 1 and 7.")
		}
		if err != nil {
			return s.finish(err)
		}
	}
}

func (s *Shell) finish(err error) error {
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	fmt.Fprintln(s.out, "Goodbye!")
	return nil
}

func (s *Shell) printMenu() {
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, s.styles.title.Render("=== HORROR MOVIES MANAGER (CLI) ==="))
	fmt.Fprintln(s.out, "1. Show all movies")
	fmt.Fprintln(s.out, "2. Add a new movie")
	fmt.Fprintln(s.out, "3. Delete a movie")
	fmt.Fprintln(s.out, "4. Upload movies from CSV file")
	fmt.Fprintln(s.out, "5. Edit a movie")
	fmt.Fprintln(s.out, "6. Calculate Scariness of a movie")
	fmt.Fprintln(s.out, "7. Exit")
}

// ListMovies prints the numbered catalog table.
func (s *Shell) ListMovies() {
	RenderTable(s.out, s.catalog.All(), s.styles.header)
}

// AddMovie prompts for every field and appends the movie.
func (s *Shell) AddMovie() error {
	fmt.Fprintln(s.out, "\n--- Add a new movie ---")
	title, err := s.promptText("Title: ", "title")
	if err != nil {
		return err
	}
	year, err := s.promptInt("Year (e.g. 2017): ", domain.MinYear, domain.CurrentYear())
	if err != nil {
		return err
	}
	director, err := s.promptText("Director: ", "director")
	if err != nil {
		return err
	}
	rating, err := s.promptFloat("Rating (0.0 - 10.0): ", domain.MinRating, domain.MaxRating)
	if err != nil {
		return err
	}
	runtime, err := s.promptInt("Runtime minutes (>0): ", 1, math.MaxInt32)
	if err != nil {
		return err
	}
	votes, err := s.promptInt("Votes (0 or greater): ", 0, math.MaxInt32)
	if err != nil {
		return err
	}
	watched, err := s.promptBool("Watched? (true/false, yes/no, y/n): ")
	if err != nil {
		return err
	}

	m, err := domain.NewMovie(title, year, director, rating, runtime, votes, watched)
	if err != nil {
		s.warn("Movie not added: %v", err)
		return nil
	}
	if _, err := s.catalog.Add(m); !s.reportSave(err) {
		return nil
	}
	fmt.Fprintln(s.out, s.styles.ok.Render("Movie added successfully!"))
	return nil
}

// DeleteMovie removes the movie the user picks.
func (s *Shell) DeleteMovie() error {
	movies := s.catalog.All()
	if len(movies) == 0 {
		fmt.Fprintln(s.out, "No movies to delete.")
		return nil
	}
	s.ListMovies()

	choice, err := s.promptInt("Enter the number of the movie to delete: ", 1, len(movies))
	if err != nil {
		return err
	}
	removed, err := s.catalog.RemoveAt(choice - 1)
	if !removed && err == nil {
		s.warn("Could not delete the movie (invalid index).")
		return nil
	}
	if s.reportSave(err) {
		fmt.Fprintln(s.out, s.styles.ok.Render("Movie deleted successfully."))
	}
	return nil
}

// UploadCSV bulk imports a file and prints the report.
func (s *Shell) UploadCSV() error {
	fmt.Fprintln(s.out, "\n--- Upload movies from CSV file ---")
	path, err := s.readLine("Enter the path to the CSV file: ")
	if err != nil {
		return err
	}
	if path == "" {
		fmt.Fprintln(s.out, "No path entered. Aborting upload.")
		return nil
	}

	report, err := s.catalog.BulkImport(path)
	s.reportSave(err)
	PrintImportReport(s.out, report)
	return nil
}

// PrintImportReport writes the summary and at most maxShownErrors error lines.
func PrintImportReport(w io.Writer, report store.ImportReport) {
	fmt.Fprintf(w, "Upload finished. Inserted: %d, Errors: %d\n", report.Inserted, len(report.Errors))
	if len(report.Errors) == 0 {
		return
	}
	fmt.Fprintf(w, "Errors (first %d shown):\n", maxShownErrors)
	for i, msg := range report.Errors {
		if i == maxShownErrors {
			fmt.Fprintln(w, " (more errors omitted...)")
			break
		}
		fmt.Fprintf(w, " - %s\n", msg)
	}
}

// EditMovie rebuilds the chosen movie from prompts that default to its current values.
func (s *Shell) EditMovie() error {
	movies := s.catalog.All()
	if len(movies) == 0 {
		fmt.Fprintln(s.out, "No movies to edit.")
		return nil
	}
	s.ListMovies()

	choice, err := s.promptInt("Enter the number of the movie to edit: ", 1, len(movies))
	if err != nil {
		return err
	}
	cur := movies[choice-1]
	fmt.Fprintf(s.out, "\n--- Editing: %s ---\n", cur.Title)

	title, err := s.promptOptionalText(fmt.Sprintf("Title [%s]: ", cur.Title), "title", cur.Title)
	if err != nil {
		return err
	}
	year, err := s.promptOptionalInt(fmt.Sprintf("Year [%d]: ", cur.Year), domain.MinYear, domain.CurrentYear(), cur.Year)
	if err != nil {
		return err
	}
	director, err := s.promptOptionalText(fmt.Sprintf("Director [%s]: ", cur.Director), "director", cur.Director)
	if err != nil {
		return err
	}
	rating, err := s.promptOptionalFloat(fmt.Sprintf("Rating [%.1f]: ", cur.Rating), domain.MinRating, domain.MaxRating, cur.Rating)
	if err != nil {
		return err
	}
	runtime, err := s.promptOptionalInt(fmt.Sprintf("Runtime minutes [%d]: ", cur.RuntimeMinutes), 1, math.MaxInt32, cur.RuntimeMinutes)
	if err != nil {
		return err
	}
	votes, err := s.promptOptionalInt(fmt.Sprintf("Votes [%d]: ", cur.Votes), 0, math.MaxInt32, cur.Votes)
	if err != nil {
		return err
	}
	watched, err := s.promptOptionalBool(fmt.Sprintf("Watched [%s]: ", yesNo(cur.Watched)), cur.Watched)
	if err != nil {
		return err
	}

	updated, err := domain.NewMovie(title, year, director, rating, runtime, votes, watched)
	if err != nil {
		s.warn("Movie not updated: %v", err)
		return nil
	}
	_, replaced, err := s.catalog.Edit(choice-1, updated)
	if !replaced && err == nil {
		s.warn("Could not edit the movie (invalid index).")
		return nil
	}
	if s.reportSave(err) {
		fmt.Fprintln(s.out, s.styles.ok.Render("Movie updated successfully!"))
	}
	return nil
}

// ShowScariness prints the chosen movie and its score.
func (s *Shell) ShowScariness() error {
	movies := s.catalog.All()
	if len(movies) == 0 {
		fmt.Fprintln(s.out, "No movies available.")
		return nil
	}
	s.ListMovies()

	choice, err := s.promptInt("Enter the number of the movie to calculate scariness: ", 1, len(movies))
	if err != nil {
		return err
	}
	m := movies[choice-1]
	fmt.Fprintln(s.out, "\nMovie Selected:")
	fmt.Fprintln(s.out, m.String())
	fmt.Fprintf(s.out, "Scariness Score: %.1f / 10.0\n", m.Scariness())
	return nil
}

// reportSave prints a warning for a failed save and reports whether err was nil.
func (s *Shell) reportSave(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, store.ErrPersist) {
		s.warn("Change kept in memory but not saved: %v", err)
		return false
	}
	s.warn("%v", err)
	return false
}

// RenderTable writes movies as a fixed-width table with 1-based numbers.
func RenderTable(w io.Writer, movies []domain.Movie, header lipgloss.Style) {
	if len(movies) == 0 {
		fmt.Fprintln(w, "No movies found.")
		return
	}

	widths := []int{4, 25, 20, 6, 6, 8, 8, 8}
	row := func(cells ...string) string {
		padded := make([]string, len(cells))
		for i, c := range cells {
			padded[i] = padRight(c, widths[i])
		}
		return strings.Join(padded, " | ")
	}

	fmt.Fprintln(w, header.Render(row("No.", "Title", "Director", "Year", "Rating", "Runtime", "Votes", "Watched")))
	total := 0
	for _, width := range widths {
		total += width
	}
	fmt.Fprintln(w, strings.Repeat("-", total+3*(len(widths)-1)))

	for i, m := range movies {
		fmt.Fprintln(w, row(
			fmt.Sprint(i+1),
			m.Title,
			m.Director,
			fmt.Sprint(m.Year),
			fmt.Sprintf("%.1f", m.Rating),
			fmt.Sprint(m.RuntimeMinutes),
			fmt.Sprint(m.Votes),
			yesNo(m.Watched),
		))
	}
}

func padRight(text string, width int) string {
	runes := []rune(text)
	if len(runes) > width {
		return string(runes[:width])
	}
	return text + strings.Repeat(" ", width-len(runes))
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
