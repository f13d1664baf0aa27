package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/reactor/internal/config"
	rerrors "github.com/vango-dev/reactor/internal/errors"
	"github.com/vango-dev/reactor/internal/report"
	"github.com/vango-dev/reactor/internal/workload"
)

type benchOptions struct {
	profile      string
	workloads    []string
	size         int
	iterations   int
	output       string
	format       string
	uploadBucket string
	region       string
}

func benchCmd(configPath *string) *cobra.Command {
	var opts benchOptions

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run graph workloads and report propagation cost",
		Long: `Run one or more graph workloads against a fresh runtime each and
report the time per write, node counts and runtime counters.

Workloads: ` + strings.Join(workload.Names(), ", ") + `

Examples:
  reactor bench
  reactor bench --workload chain --size 1000
  reactor bench --workload all --format json --output bench.json
  reactor bench --profile ci --upload-bucket my-bench-results`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runBench(ctx, cmd, cfg, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.profile, "profile", "P", "", "Bench profile from the config file")
	cmd.Flags().StringSliceVarP(&opts.workloads, "workload", "w", nil, `Workloads to run, or "all" (default from the profile)`)
	cmd.Flags().IntVarP(&opts.size, "size", "n", 0, "Graph size (default from the profile)")
	cmd.Flags().IntVarP(&opts.iterations, "iterations", "i", 0, "Writes per workload (default from the profile)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write the JSON report to this file")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "table", "Output format: table or json")
	cmd.Flags().StringVar(&opts.uploadBucket, "upload-bucket", "", "Upload the JSON report to this S3 bucket")
	cmd.Flags().StringVar(&opts.region, "region", "", "AWS region for --upload-bucket (default from the config)")

	return cmd
}

// resolve merges flags over the selected profile.
func (o benchOptions) resolve(cfg *config.Config) (names []string, size, iterations int, err error) {
	profile, ok := cfg.Profile(o.profile)
	if !ok {
		return nil, 0, 0, rerrors.Newf(rerrors.CategoryConfig, "unknown bench profile %q", o.profile).
			WithSuggestion("Define it under bench.profiles in reactor.yaml")
	}

	names = o.workloads
	if len(names) == 0 {
		names = []string{profile.Workload}
	}
	if len(names) == 1 && names[0] == "all" {
		names = workload.Names()
	}
	for _, name := range names {
		if _, ok := workload.Get(name); !ok {
			return nil, 0, 0, rerrors.New("X001").
				WithDetail(fmt.Sprintf("%q is not a workload.", name)).
				WithSuggestion("Use one of: " + strings.Join(workload.Names(), ", "))
		}
	}

	size, iterations = profile.Size, profile.Iterations
	if o.size > 0 {
		size = o.size
	}
	if o.iterations > 0 {
		iterations = o.iterations
	}
	return names, size, iterations, nil
}

func runBench(ctx context.Context, cmd *cobra.Command, cfg *config.Config, opts benchOptions) error {
	out := cmd.OutOrStdout()
	if opts.format != "table" && opts.format != "json" {
		return rerrors.Newf(rerrors.CategoryCLI, "unknown format %q", opts.format).
			WithSuggestion("Use --format table or --format json")
	}

	names, size, iterations, err := opts.resolve(cfg)
	if err != nil {
		return err
	}

	logger := cfg.Logger(cmd.ErrOrStderr())
	ins := newInstruments(cfg, false)

	results := make([]workload.Result, 0, len(names))
	for _, name := range names {
		rt := ins.newRuntime(cfg, "bench-"+name, logger)
		res, err := workload.Run(ctx, rt, name, size, iterations)
		rt.Close()
		if err != nil {
			if ctx.Err() != nil {
				warn(cmd.ErrOrStderr(), "Interrupted during %s", name)
				break
			}
			return rerrors.FromError(err)
		}
		results = append(results, res)
	}

	rep := report.New(version, opts.profile, results)
	switch opts.format {
	case "json":
		if err := rep.WriteJSON(out); err != nil {
			return rerrors.Wrapf(err, "P001", "Could not write the JSON report")
		}
	default:
		if err := rep.WriteTable(out); err != nil {
			return rerrors.Wrapf(err, "P001", "Could not write the report table")
		}
	}

	output := opts.output
	if output == "" {
		output = cfg.Report.Output
	}
	if output != "" {
		if err := rep.WriteFile(output); err != nil {
			return rerrors.Wrapf(err, "P001", "Could not write report to %s", output)
		}
		success(cmd.ErrOrStderr(), "Report written to %s", output)
	}

	bucket := opts.uploadBucket
	if bucket == "" {
		bucket = cfg.Report.Bucket
	}
	if bucket != "" {
		region := opts.region
		if region == "" {
			region = cfg.Report.Region
		}
		uploader := report.NewUploader(report.NewS3Client(region), bucket, cfg.Report.Prefix)
		key, err := uploader.Upload(ctx, rep)
		if err != nil {
			return rerrors.Wrapf(err, "P002", "Could not upload report to s3://%s", bucket)
		}
		success(cmd.ErrOrStderr(), "Uploaded s3://%s/%s", bucket, key)
	}

	if rep.Failed() {
		return rerrors.Newf(rerrors.CategoryRuntime, "propagation errors during bench").
			WithSuggestion("Run with REACTOR_LOG_LEVEL=debug to see the failing nodes")
	}
	return nil
}
