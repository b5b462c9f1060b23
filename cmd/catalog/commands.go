package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
	"github.com/Clark-Hu/movie-catalog/internal/shell"
)

type movieFlags struct {
	title    string
	year     int
	director string
	rating   float64
	runtime  int
	votes    int
	watched  bool
}

func (f *movieFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "Movie title")
	cmd.Flags().IntVar(&f.year, "year", 0, "Release year")
	cmd.Flags().StringVar(&f.director, "director", "", "Director")
	cmd.Flags().Float64Var(&f.rating, "rating", 0, "Rating between 0.0 and 10.0")
	cmd.Flags().IntVar(&f.runtime, "runtime", 0, "Runtime in minutes")
	cmd.Flags().IntVar(&f.votes, "votes", 0, "Number of votes")
	cmd.Flags().BoolVar(&f.watched, "watched", false, "Whether the movie has been watched")
}

// overlay returns base with every flag the user actually set applied on top.
func (f *movieFlags) overlay(cmd *cobra.Command, base domain.Movie) domain.Movie {
	changed := cmd.Flags().Changed
	if changed("title") {
		base.Title = f.title
	}
	if changed("year") {
		base.Year = f.year
	}
	if changed("director") {
		base.Director = f.director
	}
	if changed("rating") {
		base.Rating = f.rating
	}
	if changed("runtime") {
		base.RuntimeMinutes = f.runtime
	}
	if changed("votes") {
		base.Votes = f.votes
	}
	if changed("watched") {
		base.Watched = f.watched
	}
	return base
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show all movies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			shell.RenderTable(cmd.OutOrStdout(), a.store.All(), lipgloss.NewStyle().Bold(true))
			return nil
		},
	}
}

func newAddCmd(a *app) *cobra.Command {
	var f movieFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a movie",
		Example: `  catalog add --title "The Thing" --year 1982 --director "John Carpenter" \
    --rating 8.2 --runtime 109 --votes 450000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := domain.NewMovie(f.title, f.year, f.director, f.rating, f.runtime, f.votes, f.watched)
			if err != nil {
				return fmt.Errorf("invalid movie: %w", err)
			}
			index, err := a.store.Add(m)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added #%d: %s\n", index+1, m)
			return nil
		},
	}
	f.register(cmd)
	for _, name := range []string{"title", "year", "director", "rating", "runtime"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [number]",
		Short: "Delete the movie with the given list number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := a.movieIndex(args[0])
			if err != nil {
				return err
			}
			removed, err := a.store.RemoveAt(index)
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("could not delete movie #%s", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted movie #%s\n", args[0])
			return nil
		},
	}
}

func newEditCmd(a *app) *cobra.Command {
	var f movieFlags
	cmd := &cobra.Command{
		Use:   "edit [number]",
		Short: "Edit a movie; flags that are not given keep their current value",
		Long: `Edit replaces the chosen movie with a new, validated record.
The edited movie moves to the end of the list.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := a.movieIndex(args[0])
			if err != nil {
				return err
			}
			current, _ := a.store.Get(index)
			updated := f.overlay(cmd, current)
			updated, err = domain.NewMovie(updated.Title, updated.Year, updated.Director, updated.Rating,
				updated.RuntimeMinutes, updated.Votes, updated.Watched)
			if err != nil {
				return fmt.Errorf("invalid movie: %w", err)
			}
			newIndex, replaced, err := a.store.Edit(index, updated)
			if err != nil {
				return err
			}
			if !replaced {
				return fmt.Errorf("could not edit movie #%s", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated #%d: %s\n", newIndex+1, updated)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import [path]",
		Short: "Bulk import movies from another CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := a.store.BulkImport(args[0])
			shell.PrintImportReport(cmd.OutOrStdout(), report)
			if err != nil {
				return err
			}
			if len(report.Errors) > 0 {
				return fmt.Errorf("import finished with %d errors", len(report.Errors))
			}
			return nil
		},
	}
}

func newScarinessCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "scariness [number]",
		Short: "Calculate the scariness score of a movie",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := a.movieIndex(args[0])
			if err != nil {
				return err
			}
			m, _ := a.store.Get(index)
			fmt.Fprintln(cmd.OutOrStdout(), m)
			fmt.Fprintf(cmd.OutOrStdout(), "Scariness Score: %.1f / 10.0\n", m.Scariness())
			return nil
		},
	}
}
