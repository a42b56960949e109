// Command timetable-cli generates a timetable from CSV files without a database.
//
//	timetable-cli -dir ./data -delim ';' -out schedule.csv
//
// The directory must hold courses.csv, sessions.csv and rooms.csv;
// enrollments.csv and availability.csv are optional. Without -out the
// generation result is printed as JSON.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-timetable-api/internal/csvio"
	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/internal/service"
	"github.com/noah-isme/campus-timetable-api/internal/timetable"
	"github.com/noah-isme/campus-timetable-api/pkg/config"
	"github.com/noah-isme/campus-timetable-api/pkg/logger"
)

type options struct {
	dir        string
	delim      rune
	perBlock   bool
	out        string
	issueToken string
	role       string
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		logr.Fatal("invalid arguments", zap.Error(err))
	}

	if opts.issueToken != "" {
		if err := issueToken(os.Stdout, cfg, opts, logr); err != nil {
			logr.Fatal("issue token", zap.Error(err))
		}
		return
	}

	if err := run(os.Stdout, opts, logr); err != nil {
		logr.Fatal("generation failed", zap.Error(err))
	}
}

func parseFlags(args []string) (options, error) {
	var (
		opts  options
		delim string
	)
	fs := flag.NewFlagSet("timetable-cli", flag.ContinueOnError)
	fs.StringVar(&opts.dir, "dir", ".", "directory holding the input CSV files")
	fs.StringVar(&delim, "delim", ",", "CSV field delimiter")
	fs.BoolVar(&opts.perBlock, "per-block", false, "check teacher availability for every block instead of the first block of the day")
	fs.StringVar(&opts.out, "out", "", "write the schedule as CSV to this path instead of printing the JSON result")
	fs.StringVar(&opts.issueToken, "issue-token", "", "print a signed API token for this user id and exit")
	fs.StringVar(&opts.role, "role", string(models.RoleAdmin), "role embedded by -issue-token")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if utf8.RuneCountInString(delim) != 1 {
		return opts, fmt.Errorf("delimiter must be a single character, got %q", delim)
	}
	opts.delim, _ = utf8.DecodeRuneInString(delim)
	return opts, nil
}

func run(stdout io.Writer, opts options, logr *zap.Logger) error {
	loader := csvio.NewLoader(opts.delim)
	dataset, err := loader.LoadDir(opts.dir)
	if err != nil {
		return err
	}
	if err := timetable.Validate(dataset.Courses, dataset.Rooms); err != nil {
		return err
	}

	started := time.Now()
	plan := timetable.Generate(dataset.Courses, dataset.Rooms, timetable.Options{PerBlockAvailability: opts.perBlock})
	result := timetable.Report(plan)
	logr.Info("timetable generated",
		zap.String("outcome", string(plan.Outcome)),
		zap.Int("scheduled", result.ScheduledCount),
		zap.Int("unscheduled", result.UnscheduledCount),
		zap.Int("restricted_availability", timetable.CountRestricted(dataset.Courses)),
		zap.Duration("duration", time.Since(started)),
	)

	if opts.out == "" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	f, err := os.Create(opts.out)
	if err != nil {
		return fmt.Errorf("create %s: %w", opts.out, err)
	}
	if err := csvio.WriteSchedule(f, csvio.ScheduleRows(plan.Entries, dataset), opts.delim); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s\n%d sessions written to %s\n", result.Message, result.ScheduledCount, opts.out)
	return nil
}

func issueToken(stdout io.Writer, cfg *config.Config, opts options, logr *zap.Logger) error {
	auth := service.NewAuthService(nil, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
	})
	token, expiresAt, err := auth.IssueToken(service.IssueTokenRequest{UserID: opts.issueToken, Role: models.UserRole(opts.role)})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s\nexpires %s\n", token, expiresAt.Format(time.RFC3339))
	return nil
}
