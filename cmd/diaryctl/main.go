package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/exposurekit/contactdiary/internal/cleaner"
	"github.com/exposurekit/contactdiary/internal/config"
	"github.com/exposurekit/contactdiary/internal/export"
	"github.com/exposurekit/contactdiary/internal/store"
)

func main() {
	// Optional .env next to the working directory, env vars win over the
	// config file either way.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "diaryctl",
		Short: "Manage the local contact diary",
		Long:  "diaryctl maintains a local contact diary: who you met and where you were, kept for a trailing retention window and exportable for the health authority.",
	}

	rootCmd.AddCommand(addPersonCmd())
	rootCmd.AddCommand(addLocationCmd())
	rootCmd.AddCommand(addEncounterCmd())
	rootCmd.AddCommand(addVisitCmd())
	rootCmd.AddCommand(renamePersonCmd())
	rootCmd.AddCommand(renameLocationCmd())
	rootCmd.AddCommand(removeCmd())
	rootCmd.AddCommand(daysCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(cleanupCmd())
	rootCmd.AddCommand(resetCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openStore loads the config and opens the diary store.
func openStore() (*store.Store, *config.Config, error) {
	cfg, err := config.Load(config.ConfigPath())
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, nil, fmt.Errorf("create data dir: %w", err)
	}
	s, err := store.Open(cfg.DBPath, store.Options{RetentionDays: cfg.RetentionDays})
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	return s, cfg, nil
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func addPersonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-person NAME",
		Short: "Add a contact person",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			id, err := s.AddContactPerson(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("added person %d\n", id)
			return nil
		},
	}
}

func addLocationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-location NAME",
		Short: "Add a location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			id, err := s.AddLocation(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("added location %d\n", id)
			return nil
		},
	}
}

func addEncounterCmd() *cobra.Command {
	var duration, mask, setting int
	var circumstances string

	cmd := &cobra.Command{
		Use:   "add-encounter PERSON_ID DATE",
		Short: "Record that a person was encountered on a date (YYYY-MM-DD)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			personID, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, _, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			id, err := s.AddEncounter(store.Encounter{
				Date:            args[1],
				ContactPersonID: personID,
				Duration:        store.Duration(duration),
				MaskSituation:   store.MaskSituation(mask),
				Setting:         store.Setting(setting),
				Circumstances:   circumstances,
			})
			if err != nil {
				return err
			}
			fmt.Printf("added encounter %d\n", id)
			return nil
		},
	}

	cmd.Flags().IntVar(&duration, "duration", 0, "0 = unspecified, 1 = under 10 min, 2 = over 10 min")
	cmd.Flags().IntVar(&mask, "mask", 0, "0 = unspecified, 1 = with mask, 2 = without mask")
	cmd.Flags().IntVar(&setting, "setting", 0, "0 = unspecified, 1 = outside, 2 = inside")
	cmd.Flags().StringVar(&circumstances, "circumstances", "", "Free-text circumstances")

	return cmd
}

func addVisitCmd() *cobra.Command {
	var minutes int
	var circumstances string

	cmd := &cobra.Command{
		Use:   "add-visit LOCATION_ID DATE",
		Short: "Record that a location was visited on a date (YYYY-MM-DD)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			locationID, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, _, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			id, err := s.AddVisit(store.Visit{
				Date:              args[1],
				LocationID:        locationID,
				DurationInMinutes: minutes,
				Circumstances:     circumstances,
			})
			if err != nil {
				return err
			}
			fmt.Printf("added visit %d\n", id)
			return nil
		},
	}

	cmd.Flags().IntVar(&minutes, "minutes", 0, "Visit duration in minutes")
	cmd.Flags().StringVar(&circumstances, "circumstances", "", "Free-text circumstances")

	return cmd
}

func renamePersonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename-person ID NAME",
		Short: "Rename a contact person",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, _, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()
			return s.UpdateContactPerson(id, args[1])
		},
	}
}

func renameLocationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename-location ID NAME",
		Short: "Rename a location",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, _, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()
			return s.UpdateLocation(id, args[1])
		},
	}
}

func removeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove diary rows",
	}

	type sub struct {
		use, short string
		fn         func(s *store.Store, id int64) error
	}
	subs := []sub{
		{"person ID", "Remove a person and all their encounters", (*store.Store).RemoveContactPerson},
		{"location ID", "Remove a location and all its visits", (*store.Store).RemoveLocation},
		{"encounter ID", "Remove a single encounter", (*store.Store).RemoveEncounter},
		{"visit ID", "Remove a single visit", (*store.Store).RemoveVisit},
	}
	for _, sc := range subs {
		fn := sc.fn
		cmd.AddCommand(&cobra.Command{
			Use:   sc.use,
			Short: sc.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				s, _, err := openStore()
				if err != nil {
					return err
				}
				defer s.Close()
				return fn(s, id)
			},
		})
	}

	return cmd
}

func daysCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "days",
		Short: "Show the diary day view for the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			days := s.Days()
			if asJSON {
				data, err := json.MarshalIndent(days, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}
			fmt.Print(formatDays(days))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

// formatDays renders the day view as a terminal table, selected entries
// only.
func formatDays(days []store.DiaryDay) string {
	var b strings.Builder

	for _, day := range days {
		header := day.Date
		if day.Risk != store.RiskNone {
			header += fmt.Sprintf("  [risk: %s]", day.Risk)
		}
		b.WriteString(header + "\n")

		selected := 0
		for _, entry := range day.Entries {
			if !entry.Selected {
				continue
			}
			selected++
			switch entry.Kind {
			case store.KindPerson:
				b.WriteString("  " + entry.Name)
				if enc := entry.Encounter; enc != nil {
					for _, detail := range []string{enc.Duration.String(), enc.MaskSituation.String(), enc.Setting.String(), enc.Circumstances} {
						if detail != "" {
							b.WriteString("; " + detail)
						}
					}
				}
				b.WriteString("\n")
			case store.KindLocation:
				b.WriteString("  " + entry.Name)
				if v := entry.Visit; v != nil {
					if v.DurationInMinutes > 0 {
						fmt.Fprintf(&b, "; %d Minuten", v.DurationInMinutes)
					}
					if v.Circumstances != "" {
						b.WriteString("; " + v.Circumstances)
					}
				}
				b.WriteString("\n")
			}
		}
		if selected == 0 {
			b.WriteString("  (no entries)\n")
		}
	}

	return b.String()
}

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Print the health-authority text export",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			text, err := export.FromStore(s)
			if err != nil {
				return err
			}
			fmt.Print(text)
			return nil
		},
	}
}

func cleanupCmd() *cobra.Command {
	var timeoutSeconds int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Prune diary rows older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			if timeoutSeconds > 0 {
				return s.CleanupWithTimeout(time.Duration(timeoutSeconds) * time.Second)
			}
			return s.Cleanup()
		},
	}

	cmd.Flags().IntVar(&timeoutSeconds, "timeout", 0, "Give up waiting after this many seconds (0 = wait)")
	return cmd
}

func resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete all diary data, keeping the schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.Reset(); err != nil {
				return err
			}
			fmt.Println("diary reset")
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show store statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, cfg, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			st, err := s.Stats()
			if err != nil {
				return err
			}
			fmt.Printf("%-16s %s\n", "Database:", cfg.DBPath)
			fmt.Printf("%-16s %d days\n", "Retention:", s.RetentionDays())
			fmt.Printf("%-16s %d\n", "Persons:", st.ContactPersons)
			fmt.Printf("%-16s %d\n", "Locations:", st.Locations)
			fmt.Printf("%-16s %d\n", "Encounters:", st.Encounters)
			fmt.Printf("%-16s %d\n", "Visits:", st.Visits)
			fmt.Printf("%-16s %d bytes\n", "Size:", st.SizeBytes)
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the background cleanup scheduler until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, cfg, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			runner, err := cleaner.New(s, cfg.CleanupSchedule,
				time.Duration(cfg.CleanupTimeoutSeconds)*time.Second)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			fmt.Printf("cleanup scheduled (%s), ctrl-c to stop\n", cfg.CleanupSchedule)
			runner.Run(ctx)
			return nil
		},
	}
}
