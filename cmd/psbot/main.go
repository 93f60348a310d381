package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jordanwry/showdown/dex"
	"github.com/jordanwry/showdown/internal/bot"
	"github.com/jordanwry/showdown/internal/records"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "psbot",
		Short: "A pokemon showdown ladder bot",
		Long:  "psbot connects to a showdown simulator server, searches the configured ladder format, and plays battles with its inference engine.",
	}
	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newStatsCommand())
	return cmd
}

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Connect to the server and play on the ladder",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := bot.LoadConfig()
			if err != nil {
				return err
			}
			log, err := cfg.Logger()
			if err != nil {
				return err
			}
			d, err := dex.Load()
			if err != nil {
				return err
			}

			var store *records.Store
			if cfg.RecordsPath != "" {
				store, err = records.Open(cfg.RecordsPath)
				if err != nil {
					return err
				}
				defer store.Close()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client, err := bot.Dial(ctx, cfg.ServerURL, log)
			if err != nil {
				return err
			}
			defer client.Close()

			router := bot.NewRouter(cfg, log, d, client, store, nil)
			defer router.Shutdown()

			for {
				room, events, err := client.ReadBlock(ctx)
				if err != nil {
					if ctx.Err() != nil {
						log.Info("shutting down")
						return nil
					}
					return err
				}
				if err := router.Handle(ctx, room, events); err != nil {
					return err
				}
			}
		},
	}
}

func newStatsCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the stored battle history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := bot.LoadConfig()
			if err != nil {
				return err
			}
			if cfg.RecordsPath == "" {
				return fmt.Errorf("record keeping is disabled (PS_RECORDS_PATH is empty)")
			}
			store, err := records.Open(cfg.RecordsPath)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			st, err := store.Stats(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("battles: %d  wins: %d  losses: %d  ties: %d\n", st.Battles, st.Wins, st.Losses, st.Ties)

			recs, err := store.Recent(ctx, limit)
			if err != nil {
				return err
			}
			for _, rec := range recs {
				outcome := "loss"
				if rec.Won {
					outcome = "win"
				} else if rec.Tie {
					outcome = "tie"
				}
				fmt.Printf("%s  %-4s  vs %-18s  %2d turns  %s\n",
					rec.FinishedAt.Format(time.DateTime), outcome, rec.Opponent, rec.Turns, rec.Room)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of recent battles to list")
	return cmd
}
