// Command histctl operates the materialized history store directly: backfill
// runs, manual invalidation, coverage inspection, and stats, against the same
// database the server uses.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/google/subcommands"

	"github.com/jkoster/folio-backend/internal/config"
	"github.com/jkoster/folio-backend/internal/database"
	"github.com/jkoster/folio-backend/internal/model"
	"github.com/jkoster/folio-backend/internal/repository"
	"github.com/jkoster/folio-backend/internal/secrets"
	"github.com/jkoster/folio-backend/internal/service"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))

	commander.Register(subcommands.HelpCommand(), "")
	commander.Register(&materializeCmd{}, "")
	commander.Register(&invalidateCmd{}, "")
	commander.Register(&coverageCmd{}, "")
	commander.Register(&statsCmd{}, "")
	commander.Register(&genkeyCmd{}, "")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// env bundles the repositories and services a command needs, built from the
// same configuration the server loads.
type env struct {
	db           *sql.DB
	materializer *service.Materializer
	invalidator  *service.Invalidator
	history      *service.HistoryService
}

func setup() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	portfolioRepo := repository.NewPortfolioRepository(db)
	fundRepo := repository.NewFundRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	dividendRepo := repository.NewDividendRepository(db)
	historyRepo := repository.NewHistoryRepository(db)

	valuation := service.NewValuationService(portfolioRepo, fundRepo, transactionRepo, dividendRepo)
	coverage := service.NewCoverageChecker(historyRepo)
	materializer := service.NewMaterializer(historyRepo, portfolioRepo, valuation)

	return &env{
		db:           db,
		materializer: materializer,
		invalidator:  service.NewInvalidator(historyRepo, portfolioRepo, materializer),
		history:      service.NewHistoryService(historyRepo, coverage, valuation),
	}, nil
}

func parseDateFlag(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return &parsed, nil
}

type materializeCmd struct {
	portfolio string
	start     string
	end       string
	force     bool
}

func (*materializeCmd) Name() string { return "materialize" }
func (*materializeCmd) Synopsis() string {
	return "compute and store daily history snapshots"
}
func (*materializeCmd) Usage() string {
	return `histctl materialize [-portfolio <id>] [-start <date>] [-end <date>] [-force]

  Fills the materialized history store. Without -portfolio, every portfolio
  (archived included) is materialized over its full activity range. Existing
  days are kept unless -force is given.
`
}

func (c *materializeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "portfolio", "", "Portfolio ID to materialize (default: all).")
	f.StringVar(&c.start, "start", "", "Start date, YYYY-MM-DD (default: earliest activity).")
	f.StringVar(&c.end, "end", "", "End date, YYYY-MM-DD (default: today).")
	f.BoolVar(&c.force, "force", false, "Recompute days that are already materialized.")
}

func (c *materializeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := setup()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer e.db.Close()

	start, err := parseDateFlag(c.start)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	end, err := parseDateFlag(c.end)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

	var summary model.MaterializeSummary
	if c.portfolio == "" {
		summary, err = e.materializer.MaterializeAll(ctx, c.force)
	} else {
		summary, err = e.materializer.MaterializePortfolio(ctx, c.portfolio, start, end, c.force)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	fmt.Printf("portfolios: %d\nwritten:    %d\nexisting:   %d\nskipped:    %d\nfailed:     %d\n",
		summary.Portfolios, summary.Written, summary.Existing, summary.Skipped, summary.Failed)
	return subcommands.ExitSuccess
}

type invalidateCmd struct {
	portfolio   string
	from        string
	recalculate bool
}

func (*invalidateCmd) Name() string { return "invalidate" }
func (*invalidateCmd) Synopsis() string {
	return "discard materialized snapshots from a date forward"
}
func (*invalidateCmd) Usage() string {
	return `histctl invalidate -portfolio <id> -from <date> [-recalculate]

  Deletes the portfolio's snapshots from the given date onward. Reads fall
  back to the on-demand calculation until the range is rematerialized, either
  immediately with -recalculate or by the nightly run.
`
}

func (c *invalidateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "portfolio", "", "Portfolio ID (required).")
	f.StringVar(&c.from, "from", "", "First date to discard, YYYY-MM-DD (required).")
	f.BoolVar(&c.recalculate, "recalculate", false, "Rebuild the discarded range immediately.")
}

func (c *invalidateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.portfolio == "" || c.from == "" {
		fmt.Fprintln(os.Stderr, "both -portfolio and -from are required")
		return subcommands.ExitUsageError
	}

	from, err := parseDateFlag(c.from)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

	e, err := setup()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer e.db.Close()

	if err := e.invalidator.Invalidate(ctx, c.portfolio, *from, c.recalculate); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	fmt.Printf("invalidated %s from %s\n", c.portfolio, from.Format("2006-01-02"))
	return subcommands.ExitSuccess
}

type coverageCmd struct {
	portfolio string
	start     string
	end       string
}

func (*coverageCmd) Name() string { return "coverage" }
func (*coverageCmd) Synopsis() string {
	return "report materialized coverage over a date range"
}
func (*coverageCmd) Usage() string {
	return `histctl coverage -portfolio <id> -start <date> -end <date>

  Reports whether every day of the range has a materialized snapshot, and
  lists the missing sub-ranges otherwise. A range with any gap is served by
  the slow path until rematerialized.
`
}

func (c *coverageCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "portfolio", "", "Portfolio ID (required).")
	f.StringVar(&c.start, "start", "", "Start date, YYYY-MM-DD (required).")
	f.StringVar(&c.end, "end", "", "End date, YYYY-MM-DD (required).")
}

func (c *coverageCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.portfolio == "" || c.start == "" || c.end == "" {
		fmt.Fprintln(os.Stderr, "-portfolio, -start and -end are required")
		return subcommands.ExitUsageError
	}

	start, err := parseDateFlag(c.start)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	end, err := parseDateFlag(c.end)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

	e, err := setup()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer e.db.Close()

	result, err := e.history.CheckCoverage([]string{c.portfolio}, *start, *end)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	for _, pc := range result.Portfolios {
		if pc.Complete {
			fmt.Printf("%s: complete\n", pc.PortfolioID)
			continue
		}
		fmt.Printf("%s: incomplete\n", pc.PortfolioID)
		for _, gap := range pc.Missing {
			fmt.Printf("  missing %s .. %s\n",
				gap.Start.Format("2006-01-02"), gap.End.Format("2006-01-02"))
		}
	}
	return subcommands.ExitSuccess
}

type statsCmd struct{}

func (*statsCmd) Name() string     { return "stats" }
func (*statsCmd) Synopsis() string { return "show materialized store statistics" }
func (*statsCmd) Usage() string {
	return `histctl stats

  Prints row count, portfolio count and the date bounds of the materialized
  history store.
`
}

func (*statsCmd) SetFlags(*flag.FlagSet) {}

func (*statsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := setup()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer e.db.Close()

	stats, err := e.history.Stats()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	fmt.Printf("records:    %d\nportfolios: %d\n", stats.TotalRecords, stats.PortfolioCount)
	if stats.TotalRecords > 0 {
		fmt.Printf("oldest:     %s\nnewest:     %s\n",
			stats.OldestDate.Format("2006-01-02"), stats.NewestDate.Format("2006-01-02"))
	}
	return subcommands.ExitSuccess
}

type genkeyCmd struct{}

func (*genkeyCmd) Name() string     { return "genkey" }
func (*genkeyCmd) Synopsis() string { return "generate a key for provider-token encryption" }
func (*genkeyCmd) Usage() string {
	return `histctl genkey

  Prints a fresh key suitable for the PRICE_TOKEN_KEY environment variable.
`
}

func (*genkeyCmd) SetFlags(*flag.FlagSet) {}

func (*genkeyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	key, err := secrets.GenerateKey()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Println(key)
	return subcommands.ExitSuccess
}
