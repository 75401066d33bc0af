package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sharveshsanjay/clash-royale/internal/adapters/cache"
	app "github.com/sharveshsanjay/clash-royale/internal/app"
	"github.com/sharveshsanjay/clash-royale/internal/config"
	"github.com/sharveshsanjay/clash-royale/internal/domain/model"
	"github.com/sharveshsanjay/clash-royale/internal/render"
	"github.com/sharveshsanjay/clash-royale/pkg/logger"
)

// Output formats.
const (
	formatMarkdown = "md"
	formatJSON     = "json"
)

type reportFlags struct {
	tag           string
	file          string
	format        string
	out           string
	kickSize      int
	promotionSize int
}

func newReportCmd() *cobra.Command {
	f := &reportFlags{}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Evaluate a clan roster and render the review",
		Long: `Evaluate a clan roster and render the promotion, nomination and kick lists.

The roster is fetched from the game API for --tag (default: the configured clan)
or read from --file, a saved members document.

Examples:
  clanreview report --tag '#RYPUQ8CY'
  clanreview report --file members.json --format json --out review.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd.Context(), cmd.OutOrStdout(), f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.tag, "tag", "", "Clan tag (default: clan_tag from config)")
	flags.StringVar(&f.file, "file", "", "Read the roster from a members JSON file instead of the API")
	flags.StringVar(&f.format, "format", formatMarkdown, "Output format: md or json")
	flags.StringVar(&f.out, "out", "", "Output file path (default: stdout)")
	flags.IntVar(&f.kickSize, "kick-size", 0, "Kick list size (default: kick_list_size from config)")
	flags.IntVar(&f.promotionSize, "promotion-size", 0, "Promotion list size (default: promotion_list_size from config)")

	return cmd
}

func runReport(ctx context.Context, w io.Writer, f *reportFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if f.format != formatMarkdown && f.format != formatJSON {
		return exitError(exitUsage, "invalid --format %q: want md or json", f.format)
	}
	if f.kickSize < 0 || f.promotionSize < 0 {
		return exitError(exitUsage, "list sizes must not be negative")
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return exitError(exitUsage, "config: %v", err)
	}
	if f.kickSize > 0 {
		cfg.KickListSize = f.kickSize
	}
	if f.promotionSize > 0 {
		cfg.PromotionListSize = f.promotionSize
	}
	tag := f.tag
	if tag == "" {
		tag = cfg.ClanTag
	}

	log := logger.New(os.Stderr, cfg.LogFormat)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return exitError(exitUsage, "config: %v", err)
	}

	roster, err := loadRoster(ctx, cfg, log, tag, f.file)
	if err != nil {
		return err
	}

	report := app.NewEvaluator(cfg).Evaluate(roster)
	log.Debug(ctx, "roster evaluated",
		logger.String("tag", tag),
		logger.Int("members", len(roster)),
		logger.Int("kick", len(report.Kick)),
	)

	var out []byte
	if f.format == formatJSON {
		if out, err = render.JSON(report); err != nil {
			return fmt.Errorf("render: %w", err)
		}
		out = append(out, '\n')
	} else {
		out = []byte(render.Markdown(report, tag))
	}

	if f.out == "" {
		_, err = w.Write(out)
		return err
	}
	if err := os.WriteFile(f.out, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", f.out, err)
	}
	return nil
}

func loadRoster(ctx context.Context, cfg *config.Config, log logger.Logger, tag, file string) ([]model.MemberRecord, error) {
	if file != "" {
		roster, err := readRoster(file)
		if err != nil {
			return nil, exitError(exitFetch, "read roster: %v", err)
		}
		return roster, nil
	}

	client := app.NewClient(cfg, cache.Nop{}, log)
	roster, err := client.Roster(ctx, tag)
	if err != nil {
		return nil, exitError(exitFetch, "fetch roster %s: %v", tag, err)
	}
	return roster, nil
}

// readRoster accepts a members document ({"items":[...]}) or a bare array.
func readRoster(path string) ([]model.MemberRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var list model.MemberList
	if err := json.Unmarshal(data, &list); err == nil {
		if list.Items == nil {
			list.Items = []model.MemberRecord{}
		}
		return list.Items, nil
	}
	var items []model.MemberRecord
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%s: not a members document: %w", path, err)
	}
	return items, nil
}
