package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yungbote/brandprompt-backend/internal/apiclient"
	"github.com/yungbote/brandprompt-backend/internal/clients/redis"
	"github.com/yungbote/brandprompt-backend/internal/domain/brand"
	"github.com/yungbote/brandprompt-backend/internal/modules/curation"
	"github.com/yungbote/brandprompt-backend/internal/pkg/logger"
)

func newClient(opts *rootOptions) (*apiclient.Client, *logger.Logger, error) {
	log, err := logger.New(opts.logMode)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	c, err := apiclient.New(log, apiclient.Config{BaseURL: opts.server})
	if err != nil {
		return nil, nil, err
	}
	return c, log, nil
}

func onboardCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "onboard <brand-name> <url>",
		Short: "Fetch a site, synthesize 10x5 prompts and store a brand record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := newClient(opts)
			if err != nil {
				return err
			}
			rec, err := c.Onboard(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printRecord(cmd.OutOrStdout(), rec, opts.json)
		},
	}
}

func showCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one brand record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := newClient(opts)
			if err != nil {
				return err
			}
			rec, err := c.GetBrand(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printRecord(cmd.OutOrStdout(), rec, opts.json)
		},
	}
}

func listCmd(opts *rootOptions) *cobra.Command {
	var page, limit int
	var filter brand.RecordFilter
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List or search brand records, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := newClient(opts)
			if err != nil {
				return err
			}
			out, err := c.ListBrands(cmd.Context(), filter, page, limit)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if opts.json {
				return writeJSON(w, out)
			}
			for _, rec := range out.Data {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", rec.ID, rec.BrandName, rec.URL, rec.CreatedAt.Format(time.RFC3339))
			}
			fmt.Fprintf(w, "page %d/%d (%d total)\n", out.Page, out.TotalPages, out.Total)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "records per page (max 100)")
	cmd.Flags().StringVarP(&filter.Query, "query", "q", "", "match brand name or URL (case-insensitive substring)")
	cmd.Flags().StringVar(&filter.BrandName, "brand-name", "", "match brand name only (case-insensitive substring)")
	cmd.Flags().StringVar(&filter.URL, "url", "", "exact website URL")
	return cmd
}

func statsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count onboarded brands overall, today, this week and this month (UTC)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := newClient(opts)
			if err != nil {
				return err
			}
			out, err := c.Stats(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if opts.json {
				return writeJSON(w, out)
			}
			fmt.Fprintf(w, "total\t%d\ntoday\t%d\nthis week\t%d\nthis month\t%d\n", out.Total, out.Today, out.ThisWeek, out.ThisMonth)
			return nil
		},
	}
}

func curateCmd(opts *rootOptions) *cobra.Command {
	var rawOps []string
	var allowDuplicates, dryRun bool
	cmd := &cobra.Command{
		Use:   "curate <id>",
		Short: "Apply edits to a record's prompt set, then commit",
		Long: `Loads the record, applies each --op in order to a local working copy,
and commits the result in one request. Nothing is sent if an op fails.

Ops:
  add-category:<name>
  remove-category:<index>
  add-question:<category-index>:<text>
  remove-question:<category-index>:<question-index>`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ops, err := parseOps(rawOps)
			if err != nil {
				return err
			}
			c, log, err := newClient(opts)
			if err != nil {
				return err
			}
			rec, err := c.GetBrand(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			policy := curation.DuplicateReject
			if allowDuplicates {
				policy = curation.DuplicateAllow
			}
			s := curation.NewSession(c, curation.WithDuplicatePolicy(policy), curation.WithLogger(log))
			if err := s.Load(rec); err != nil {
				return err
			}
			for _, op := range ops {
				if err := op.apply(s); err != nil {
					return fmt.Errorf("%s: %w", op, err)
				}
			}
			if dryRun {
				return writeJSON(cmd.OutOrStdout(), s.Snapshot())
			}
			updated, err := s.Commit(cmd.Context())
			if err != nil {
				return err
			}
			return printRecord(cmd.OutOrStdout(), updated, opts.json)
		},
	}
	cmd.Flags().StringArrayVar(&rawOps, "op", nil, "edit op, repeatable")
	cmd.Flags().BoolVar(&allowDuplicates, "allow-duplicate-categories", false, "allow categories whose names differ only by case")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the edited prompt set without committing")
	return cmd
}

func eventsCmd(opts *rootOptions) *cobra.Command {
	var cfg redis.Config
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Stream brand events from Redis until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := logger.New(opts.logMode)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			bus, err := redis.NewEventBus(ctx, log, cfg)
			if err != nil {
				return err
			}
			defer bus.Close()

			w := cmd.OutOrStdout()
			if err := bus.StartForwarder(ctx, func(evt brand.Event) {
				if opts.json {
					_ = writeJSON(w, evt)
					return
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d categories, %d questions\n",
					evt.At.Format(time.RFC3339), evt.Type, evt.RecordID, evt.Categories, evt.Questions)
			}); err != nil {
				return err
			}
			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().StringVar(&cfg.Addr, "redis-addr", envOr("REDIS_ADDR", "localhost:6379"), "Redis address")
	cmd.Flags().StringVar(&cfg.Password, "redis-password", os.Getenv("REDIS_PASSWORD"), "Redis password")
	cmd.Flags().StringVar(&cfg.Channel, "channel", envOr("REDIS_CHANNEL", redis.DefaultChannel), "pub/sub channel")
	return cmd
}

func printRecord(w io.Writer, rec *brand.BrandRecord, asJSON bool) error {
	if asJSON {
		return writeJSON(w, rec)
	}
	if rec == nil {
		fmt.Fprintln(w, "(no record)")
		return nil
	}
	fmt.Fprintf(w, "%s  %s  %s\n", rec.ID, rec.BrandName, rec.URL)
	fmt.Fprintf(w, "created %s, updated %s\n", rec.CreatedAt.Format(time.RFC3339), rec.UpdatedAt.Format(time.RFC3339))
	ps, ok := rec.CurrentPromptSet()
	if !ok {
		fmt.Fprintln(w, "(no prompt set)")
		return nil
	}
	for i, c := range ps.Categories {
		fmt.Fprintf(w, "\n[%d] %s\n", i, c.Name)
		for j, q := range c.Questions {
			fmt.Fprintf(w, "    %d. %s\n", j, q)
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
