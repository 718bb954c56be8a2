package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/charlie0129/recal/pkg/events"
)

func NewWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "watch",
		Short:   "Follow recalibration events until interrupted",
		GroupID: gAdvanced,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ch, err := apiClient.Events(ctx)
			if err != nil {
				return err
			}

			for ev := range ch {
				switch ev.Name {
				case events.RecalibrationPhase:
					p, err := events.DecodeAs[events.RecalibrationPhaseEvent](ev)
					if err != nil {
						continue
					}
					cmd.Printf("%s %s %s: %s -> %s\n", time.Unix(p.Ts, 0).Format(time.TimeOnly), p.RunID, p.Thermostat, p.From, p.To)
				case events.RecalibrationQueue:
					q, err := events.DecodeAs[events.RecalibrationQueueEvent](ev)
					if err != nil {
						continue
					}
					state := "queued"
					if !q.Accepted {
						state = "dropped"
					}
					cmd.Printf("%s %s %s: %s from %s\n", time.Unix(q.Ts, 0).Format(time.TimeOnly), q.RunID, q.Thermostat, state, q.Source)
				}
			}
			return nil
		},
	}
}

func NewConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "config",
		Short:   "Print the daemon's effective config (secrets omitted)",
		GroupID: gAdvanced,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := apiClient.GetConfig()
			if err != nil {
				return err
			}
			b, err := json.MarshalIndent(conf, "", "  ")
			if err != nil {
				return err
			}
			cmd.Println(string(b))
			return nil
		},
	}
}
