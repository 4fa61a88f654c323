package main

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/glint-dev/glint/pkg/devtools"
	"github.com/glint-dev/glint/pkg/glint"
)

func inspectCmd() *cobra.Command {
	var (
		addr     string
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Serve the graph inspector against a demo engine",
		Long: `Start the devtools inspector with a small demo graph: a species
signal, a filtered-subset derivation, and a row-count observer. The
demo writes a random species on an interval so the event stream has
something to show.

Endpoints:
  GET /api/graph   dependency graph snapshot (JSON)
  GET /api/events  live event stream (websocket)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Devtools.Address()
			}

			e := glint.New(
				glint.WithLogger(logger),
				glint.WithMaxFlushRounds(cfg.MaxFlushRounds),
			)
			defer e.Close()

			table := []struct {
				Species string
				Count   int
			}{
				{"DO", 12}, {"PP", 7}, {"DO", 3}, {"ZZ", 1}, {"PP", 2},
			}
			codes := []string{"DO", "PP", "ZZ"}

			species := glint.Declare(e, "species", "DO")
			subset := glint.Derive(e, "subset", func() ([]int, error) {
				want := species.Get()
				var rows []int
				for _, row := range table {
					if row.Species == want {
						rows = append(rows, row.Count)
					}
				}
				return rows, nil
			})
			e.Observe("renderCount", func() error {
				rows, err := subset.Get()
				if err != nil {
					return err
				}
				logger.Info("render", "species", species.Peek(), "rows", len(rows))
				return nil
			})

			srv := devtools.NewServer(e,
				devtools.WithAddr(addr),
				devtools.WithLogger(logger),
			)

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			for {
				select {
				case <-ticker.C:
					species.Set(codes[rand.Intn(len(codes))])

				case <-stop:
					logger.Info("shutting down")
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					return srv.Shutdown(ctx)

				case err := <-errCh:
					if errors.Is(err, http.ErrServerClosed) {
						return nil
					}
					return err
				}
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from glint.json)")
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "Demo write interval")

	return cmd
}
