// Command recompute is the thin stand-in for the out-of-scope HTTP worker
// shell / job-queue dispatcher: it builds a job request from CLI flags and
// invokes the phase coordinator directly. It does no routing, auth, or
// multi-tenant dispatch — those remain external collaborators per
// SPEC_FULL.md §2.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/allensuvorov/showsummaries/internal/blobstore"
	"github.com/allensuvorov/showsummaries/internal/config"
	"github.com/allensuvorov/showsummaries/internal/coordinator"
	"github.com/allensuvorov/showsummaries/internal/obslog"
)

var (
	cfgPath    string
	showFlag   string
	monthFlag  string
	phasesFlag string
	startDay   int
	maxDays    int
	sequential bool
	verboseLog bool
)

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Recompute show-summary dailies/aggregates/audience for one show and month",
		RunE:  run,
	}
	cmd.Flags().StringVar(&cfgPath, "config", "", "path to config file (optional)")
	cmd.Flags().StringVar(&showFlag, "show", "", "show UUID (required)")
	cmd.Flags().StringVar(&monthFlag, "month", "", "month as YYYY-MM (required)")
	cmd.Flags().StringVar(&phasesFlag, "phases", "", "comma-list of phases (default: dailies,aggregates,audience)")
	cmd.Flags().IntVar(&startDay, "start-day", 0, "first day of month to process (1-indexed)")
	cmd.Flags().IntVar(&maxDays, "max-days", -1, "number of days to process from start-day (-1 = unset)")
	cmd.Flags().BoolVar(&sequential, "sequential", false, "process daily keys one at a time instead of in parallel")
	cmd.Flags().BoolVar(&verboseLog, "log", false, "log a summary line on completion")
	_ = cmd.MarkFlagRequired("show")
	_ = cmd.MarkFlagRequired("month")
	return cmd
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := obslog.New(os.Stderr, obslog.ParseLevel(cfg.LogLevel))

	store, err := buildStore(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("build blob store: %w", err)
	}

	req, err := coordinator.ParseRequest(buildRawRequest())
	if err != nil {
		return fmt.Errorf("invalid job request: %w", err)
	}

	c := coordinator.New(store, logger, cfg.MaxConcurrency)
	report, err := c.Run(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("recompute failed: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	return enc.Encode(report.Times)
}

func buildRawRequest() coordinator.RawRequest {
	params := map[string]string{
		"show":   showFlag,
		"month":  monthFlag,
		"phases": phasesFlag,
	}
	if startDay > 0 {
		params["startDay"] = strconv.Itoa(startDay)
	}
	if maxDays >= 0 {
		params["maxDays"] = strconv.Itoa(maxDays)
	}

	var flags []string
	if sequential {
		flags = append(flags, "sequential")
	}
	if verboseLog {
		flags = append(flags, "log")
	}
	if len(flags) > 0 {
		joined := flags[0]
		for _, f := range flags[1:] {
			joined += "," + f
		}
		params["flags"] = joined
	}

	return coordinator.RawRequest{
		OperationKind: "update",
		TargetPath:    "/work/recompute-show-summaries",
		Parameters:    params,
	}
}

func buildStore(ctx context.Context, cfg config.Config) (blobstore.Store, error) {
	switch cfg.BlobStore.Backend {
	case "", "memory":
		return blobstore.NewMemory(), nil
	case "s3":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.BlobStore.Region))
		if err != nil {
			return nil, err
		}
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.BlobStore.Endpoint != "" {
				o.BaseEndpoint = &cfg.BlobStore.Endpoint
			}
		})
		return blobstore.NewS3(client, cfg.BlobStore.Bucket), nil
	default:
		return nil, fmt.Errorf("unknown blobstore backend %q", cfg.BlobStore.Backend)
	}
}
