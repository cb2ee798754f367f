package cli

import (
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/arnavshah/callup-allocator-go/pkg/allocator"
	"github.com/arnavshah/callup-allocator-go/pkg/config"
	"github.com/arnavshah/callup-allocator-go/pkg/logger"
	"github.com/arnavshah/callup-allocator-go/pkg/models"
	"github.com/arnavshah/callup-allocator-go/pkg/report"
	"github.com/arnavshah/callup-allocator-go/pkg/roster"
	"github.com/arnavshah/callup-allocator-go/pkg/workbook"
)

// Options holds the flags of the allocate command
type Options struct {
	Sheet                   string
	MaxHomeBase             int
	MaxAwayBase             int
	GKCap                   int
	RequireExactReserveFour bool
	NoRequireExact          bool
	PreferGKVolunteers      bool
	NoPreferGKVolunteers    bool
	Summary                 string
	Verbose                 bool
}

// NewRootCommand creates the allocate command. Flags default to cfg.
func NewRootCommand(cfg *config.Config) *cobra.Command {
	opts := &Options{}
	defaults := cfg.Allocation()

	cmd := &cobra.Command{
		Use:   "allocate INPUT OUTPUT",
		Short: "Allocate players to match call-ups",
		Long: `Reads a signup roster (xlsx or csv), assigns goalkeepers, two field lines
and an optional reserve line for every match in column order, and writes a
workbook with the annotated roster plus one sheet per match.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Summary == "" {
				return nil
			}
			if _, err := report.ParseFormat(opts.Summary); err != nil {
				return WrapExitError(ExitFailure, "invalid --summary", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAllocate(cmd, cfg, opts, args[0], args[1])
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Sheet, "sheet", cfg.Sheet, "worksheet holding the signup responses")
	f.IntVar(&opts.MaxHomeBase, "max-home-base", defaults.MaxHomeBase, "standard call-ups per player at home matches")
	f.IntVar(&opts.MaxAwayBase, "max-away-base", defaults.MaxAwayBase, "standard call-ups per player at away matches")
	f.IntVar(&opts.GKCap, "gk-cap", defaults.GKCap, "goalkeeper games per player before the cap is exceeded")
	f.BoolVar(&opts.RequireExactReserveFour, "require-exact-reserve-four", defaults.RequireExactReserveFour, "only create a reserve line when four volunteers are left")
	f.BoolVar(&opts.NoRequireExact, "no-require-exact-reserve-four", false, "allow reserve lines shorter than four")
	f.BoolVar(&opts.PreferGKVolunteers, "prefer-gk-volunteers", defaults.PreferGKVolunteers, "pick goalkeeper volunteers first")
	f.BoolVar(&opts.NoPreferGKVolunteers, "no-prefer-gk-volunteers", false, "ignore goalkeeper volunteering when ranking")
	f.StringVar(&opts.Summary, "summary", "", "print a run summary (text|json|yaml)")
	f.BoolVarP(&opts.Verbose, "verbose", "v", false, "log every match decision to stderr")

	cmd.MarkFlagsMutuallyExclusive("require-exact-reserve-four", "no-require-exact-reserve-four")
	cmd.MarkFlagsMutuallyExclusive("prefer-gk-volunteers", "no-prefer-gk-volunteers")

	return cmd
}

// AllocationConfig resolves the paired --x/--no-x flags into an engine config
func (o *Options) AllocationConfig() models.AllocationConfig {
	cfg := models.AllocationConfig{
		MaxHomeBase:             o.MaxHomeBase,
		MaxAwayBase:             o.MaxAwayBase,
		GKCap:                   o.GKCap,
		RequireExactReserveFour: o.RequireExactReserveFour,
		PreferGKVolunteers:      o.PreferGKVolunteers,
	}
	if o.NoRequireExact {
		cfg.RequireExactReserveFour = false
	}
	if o.NoPreferGKVolunteers {
		cfg.PreferGKVolunteers = false
	}
	return cfg
}

func runAllocate(cmd *cobra.Command, cfg *config.Config, opts *Options, input, output string) error {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	log := runLogger(stderr, cfg, opts).WithFields(logrus.Fields{
		"run_id": uuid.NewString(),
		"sheet":  opts.Sheet,
	})
	allocCfg := opts.AllocationConfig()

	tbl, err := workbook.ReadTable(input, opts.Sheet)
	if err != nil {
		return classify("failed to read roster", err)
	}

	r, err := roster.Parse(tbl, roster.DefaultColumns())
	if err != nil {
		return classify("invalid roster", err)
	}
	log.WithFields(logrus.Fields{
		"players": len(r.Players),
		"matches": len(r.Matches),
	}).Info("Roster loaded")

	a, err := allocator.NewAllocator(r.Players, r.Matches, allocCfg)
	if err != nil {
		return classify("allocation failed", err)
	}
	res := a.WithLogger(log).Run()

	if err := workbook.Write(output, r, res, allocCfg); err != nil {
		return classify("failed to write workbook", err)
	}

	for _, w := range report.Warnings(res.Violations) {
		fmt.Fprintf(stderr, "Warning: %s\n", w)
	}
	log.WithFields(logrus.Fields{
		"violations":     len(res.Violations),
		"fairness_score": res.FairnessScore,
	}).Info("Allocation written")

	fmt.Fprintf(stdout, "Allocated %d matches for %d players; wrote %s\n", len(r.Matches), len(r.Players), output)

	if opts.Summary != "" {
		format, _ := report.ParseFormat(opts.Summary)
		if err := report.Render(stdout, format, res, allocCfg); err != nil {
			return classify("failed to render summary", err)
		}
	}
	return nil
}

// runLogger logs to stderr; quiet unless --verbose or LOG_LEVEL asks for more
func runLogger(w io.Writer, cfg *config.Config, opts *Options) *logrus.Logger {
	level := "warn"
	if opts.Verbose {
		level = "debug"
	} else if cfg.LogLevel != "" && cfg.LogLevel != "info" {
		level = cfg.LogLevel
	}
	return logger.New(w, level, true)
}
