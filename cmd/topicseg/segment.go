package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"topicseg/internal/metrics"
	"topicseg/internal/service"
)

var errSegmentation = errors.New("segmentation failed")

func newSegmentCommand(a *app) *cobra.Command {
	var (
		asArray     bool
		workers     int
		metricsAddr string
	)
	cmd := &cobra.Command{
		Use:   "segment [files...]",
		Short: "Segment files (or stdin) and print JSON results",
		Long: `Segment every file and print one JSON result per file. With no file, or
with "-", the text is read from stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"-"}
			}
			docs, err := readInputs(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			if workers > 0 {
				a.cfg.Service.Workers = workers
			}

			rec := metrics.Nop()
			if metricsAddr != "" {
				prom, err := metrics.NewPrometheus(nil)
				if err != nil {
					return fmt.Errorf("init metrics: %w", err)
				}
				stop := serveMetrics(a, metricsAddr, prom.Handler())
				defer stop()
				rec = prom
			}

			seg, err := service.NewFromConfig(a.cfg, a.log, rec)
			if err != nil {
				return err
			}
			results, err := seg.SegmentMany(cmd.Context(), docs)
			if err != nil {
				a.log.Error("segmentation failed", "error", err)
				return errSegmentation
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if asArray {
				return enc.Encode(results)
			}
			for _, r := range results {
				if err := enc.Encode(r); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asArray, "array", false, "Print all results as one JSON array")
	cmd.Flags().IntVar(&workers, "workers", 0, "Documents segmented in parallel (default from config)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running, e.g. :9090")
	return cmd
}

func readInputs(stdin io.Reader, paths []string) ([]string, error) {
	docs := make([]string, 0, len(paths))
	for _, p := range paths {
		var (
			data []byte
			err  error
		)
		if p == "-" {
			data, err = io.ReadAll(stdin)
		} else {
			data, err = os.ReadFile(p)
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		docs = append(docs, string(data))
	}
	return docs, nil
}

func serveMetrics(a *app, addr string, handler http.Handler) (stop func()) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	a.log.Info("serving metrics", "addr", addr)
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
