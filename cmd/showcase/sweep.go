package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/eringen/showcase"
	"github.com/eringen/showcase/media"
)

type sweepOptions struct {
	dryRun bool
	grace  time.Duration
}

func parseSweepFlags(args []string) (sweepOptions, error) {
	fs := flag.NewFlagSet("sweep", flag.ContinueOnError)
	var opts sweepOptions
	fs.BoolVar(&opts.dryRun, "dry-run", false, "report orphans without deleting them")
	fs.DurationVar(&opts.grace, "grace", showcase.DefaultSweepGrace, "leave files younger than this alone")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.grace < 0 {
		return opts, fmt.Errorf("grace must not be negative")
	}
	return opts, nil
}

func runSweep(args []string, out io.Writer) error {
	opts, err := parseSweepFlags(args)
	if err != nil {
		return err
	}
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := context.Background()
	store, err := showcase.NewStore(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	blobs, err := media.New(ctx, cfg.Media)
	if err != nil {
		return err
	}

	report, err := showcase.Sweep(ctx, store, blobs, opts.grace, opts.dryRun, log)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
