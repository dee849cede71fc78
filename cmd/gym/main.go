package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mpataki/gym/internal/config"
	"github.com/mpataki/gym/internal/models"
	"github.com/mpataki/gym/internal/trainer"
	"github.com/mpataki/gym/internal/tui"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gym",
		Short: "Workout tracker",
		Long:  "Gym runs your workouts set by set, keeps a history of finished sessions and pays out skins for the work.",
		RunE:  runTUI,
	}

	rootCmd.AddCommand(newWorkoutsCommand())
	rootCmd.AddCommand(newExercisesCommand())
	rootCmd.AddCommand(newImportCommand())
	rootCmd.AddCommand(newHistoryCommand())
	rootCmd.AddCommand(newRewardsCommand())
	rootCmd.AddCommand(newExportCommand())
	rootCmd.AddCommand(newRestoreCommand())
	rootCmd.AddCommand(newDeleteCommand())
	rootCmd.AddCommand(newWorkoutCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// withTrainer loads config, opens the log file and the database, and hands
// the wired Trainer to fn.
func withTrainer(fn func(tr *trainer.Trainer) error) error {
	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	logFile, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()
	logger := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: cfg.LogLevel()}))

	tr, err := trainer.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer tr.Close()

	return fn(tr)
}

func runTUI(cmd *cobra.Command, args []string) error {
	return withTrainer(tui.Run)
}

func newWorkoutsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "workouts",
		Short: "List workouts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTrainer(func(tr *trainer.Trainer) error {
				workouts, err := tr.Workouts()
				if err != nil {
					return err
				}

				if len(workouts) == 0 {
					fmt.Println("No workouts found.")
					return nil
				}

				for _, w := range workouts {
					last := "never"
					if w.LastCompleted != nil {
						last = humanize.Time(*w.LastCompleted)
					}
					fmt.Printf("#%d %s [%s] %d exercises, %d sets, last done %s\n",
						w.ID, w.Name, w.Difficulty, len(w.Exercises), w.TotalSets(), last)
				}
				return nil
			})
		},
	}
}

func newExercisesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "exercises",
		Short: "List catalog exercises",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTrainer(func(tr *trainer.Trainer) error {
				exercises, err := tr.Exercises()
				if err != nil {
					return err
				}

				if len(exercises) == 0 {
					fmt.Println("No exercises found.")
					return nil
				}

				for _, ex := range exercises {
					fmt.Printf("#%d %s [%s] %s %s\n",
						ex.ID, ex.Name, ex.Difficulty, ex.Category, strings.Join(ex.MuscleGroups, ","))
				}
				return nil
			})
		},
	}
}

func newImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file.yaml|file.lua]",
		Short: "Import exercises and workouts from a definition file or program script",
		Long: "Import a YAML definition file or run a Lua program script and import what it defines. " +
			"Without arguments, every definition file in .gym/workouts and the data directory's workouts/ is imported.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTrainer(func(tr *trainer.Trainer) error {
				if len(args) == 0 {
					res, err := tr.ImportDefinitions()
					if err != nil {
						return err
					}
					fmt.Printf("Imported %s\n", res)
					return nil
				}

				res, err := tr.Import(args[0])
				if err != nil {
					return err
				}
				fmt.Printf("Imported %s: %s\n", filepath.Base(args[0]), res)
				return nil
			})
		},
	}
}

func newHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show finished workouts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			return withTrainer(func(tr *trainer.Trainer) error {
				entries, err := tr.History(limit)
				if err != nil {
					return err
				}

				if len(entries) == 0 {
					fmt.Println("No history yet.")
					return nil
				}

				for _, e := range entries {
					early := ""
					if e.EndedEarly {
						early = " (ended early)"
					}
					fmt.Printf("%s  %s  %dm  %d/%d sets  +%d skins%s\n",
						humanize.Time(e.CompletedAt), e.WorkoutName, e.DurationMinutes,
						e.SetsCompleted, e.TotalSets, e.Reward, early)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntP("limit", "n", models.MaxHistoryEntries, "Number of entries to show")
	return cmd
}

func newRewardsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rewards",
		Short: "Show the skins total",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTrainer(func(tr *trainer.Trainer) error {
				fmt.Printf("%s skins\n", humanize.Comma(int64(tr.Ledger.Total())))
				return nil
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "adjust <amount>",
		Short: "Add to or subtract from the skins total",
		Args:  cobra.ExactArgs(1),
		// Negative amounts would otherwise parse as flags.
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid amount: %w", err)
			}

			return withTrainer(func(tr *trainer.Trainer) error {
				total, err := tr.AdjustRewards(amount)
				if err != nil {
					return err
				}
				fmt.Printf("%s skins\n", humanize.Comma(int64(total)))
				return nil
			})
		},
	})

	return cmd
}

func newExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export [dir]",
		Short: "Write a backup of all data",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}

			return withTrainer(func(tr *trainer.Trainer) error {
				path, err := tr.Export(dir)
				if err != nil {
					return err
				}
				fmt.Printf("Backup written to %s\n", path)
				return nil
			})
		},
	}
}

func newRestoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <dir>",
		Short: "Replace all data with a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTrainer(func(tr *trainer.Trainer) error {
				if err := tr.Restore(args[0]); err != nil {
					return err
				}
				fmt.Printf("Restored %s\n", args[0])
				return nil
			})
		},
	}
}

func newDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <workout-id>",
		Short: "Delete a workout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workoutID, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withTrainer(func(tr *trainer.Trainer) error {
				if err := tr.DeleteWorkout(workoutID); err != nil {
					return err
				}
				fmt.Printf("Deleted workout #%d\n", workoutID)
				return nil
			})
		},
	}
}

// newWorkoutCommand edits a workout's entries and sets. Positions on the
// command line count from 1.
func newWorkoutCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workout",
		Short: "Show or edit one workout",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show <workout-id>",
		Short: "Show a workout's exercises and sets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workoutID, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withTrainer(func(tr *trainer.Trainer) error {
				w, err := tr.Workout(workoutID)
				if err != nil {
					return err
				}
				printWorkout(w)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add-exercise <workout-id> <exercise-id>",
		Short: "Append a catalog exercise with one default set",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			workoutID, err := parseID(args[0])
			if err != nil {
				return err
			}
			exerciseID, err := parseID(args[1])
			if err != nil {
				return err
			}
			return withTrainer(func(tr *trainer.Trainer) error {
				return printEdited(tr.AddExercise(workoutID, exerciseID))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove-exercise <workout-id> <position>",
		Short: "Remove an exercise from a workout",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			workoutID, err := parseID(args[0])
			if err != nil {
				return err
			}
			exerciseIndex, err := parsePosition(args[1])
			if err != nil {
				return err
			}
			return withTrainer(func(tr *trainer.Trainer) error {
				return printEdited(tr.RemoveExercise(workoutID, exerciseIndex))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add-set <workout-id> <position>",
		Short: "Add a set repeating the exercise's last set",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			workoutID, err := parseID(args[0])
			if err != nil {
				return err
			}
			exerciseIndex, err := parsePosition(args[1])
			if err != nil {
				return err
			}
			return withTrainer(func(tr *trainer.Trainer) error {
				return printEdited(tr.AddSet(workoutID, exerciseIndex))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove-set <workout-id> <position> <set>",
		Short: "Remove a set from an exercise",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			workoutID, err := parseID(args[0])
			if err != nil {
				return err
			}
			exerciseIndex, err := parsePosition(args[1])
			if err != nil {
				return err
			}
			setIndex, err := parsePosition(args[2])
			if err != nil {
				return err
			}
			return withTrainer(func(tr *trainer.Trainer) error {
				return printEdited(tr.RemoveSet(workoutID, exerciseIndex, setIndex))
			})
		},
	})

	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid ID %q: %w", s, err)
	}
	return id, nil
}

func parsePosition(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid position %q", s)
	}
	return n - 1, nil
}

func printEdited(w *models.Workout, err error) error {
	if err != nil {
		return err
	}
	printWorkout(w)
	return nil
}

func printWorkout(w *models.Workout) {
	fmt.Printf("#%d %s [%s]\n", w.ID, w.Name, w.Difficulty)
	for i, ex := range w.Exercises {
		fmt.Printf("  %d. %s (rest %ds)\n", i+1, ex.Name, ex.RestSeconds)
		for j, set := range ex.Sets {
			fmt.Printf("     set %d: %d × %s\n", j+1, set.Reps, strconv.FormatFloat(set.Weight, 'f', -1, 64))
		}
	}
}
