package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"shortscript-api/internal/application/script/budget"
	"shortscript-api/internal/application/script/library"
	"shortscript-api/internal/application/script/validate"
	"shortscript-api/internal/config"
	"shortscript-api/internal/domain/entity"
	"shortscript-api/internal/wire"
	"shortscript-api/pkg/logger"
)

type requestFlags struct {
	idea     string
	duration string
	kind     string
	tone     string
	notes    string
}

func (f *requestFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.idea, "idea", "", "video idea")
	cmd.Flags().StringVar(&f.duration, "duration", "30", "target duration in seconds (15|20|30|45|60|90)")
	cmd.Flags().StringVar(&f.kind, "type", "educational", "script type (speed|educational|viral)")
	cmd.Flags().StringVar(&f.tone, "tone", "casual", "tone (casual|professional|energetic|educational)")
	cmd.Flags().StringVar(&f.notes, "notes", "", "reference notes")
}

func (f *requestFlags) request() entity.ScriptRequest {
	req := entity.ScriptRequest{
		Idea:     f.idea,
		Duration: entity.Duration(f.duration),
		Type:     entity.ScriptType(f.kind),
		Tone:     entity.Tone(f.tone),
	}
	if f.notes != "" {
		req.Context = &entity.RequestContext{Notes: f.notes}
	}
	return req
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "scriptctl",
		Short:         "Short-video script toolkit",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newBudgetCmd(), newValidateCmd(), newExamplesCmd(), newGenerateCmd())
	return root
}

func newBudgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "budget",
		Short: "Print the word budget for every supported duration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printBudget(cmd.OutOrStdout())
		},
	}
}

func printBudget(out io.Writer) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "DURATION\tTOTAL\tHOOK\tBRIDGE\tNUGGET\tWTA\n")
	for _, m := range budget.All() {
		fmt.Fprintf(tw, "%ss\t%d\t%ds/%dw\t%ds/%dw\t%ds/%dw\t%ds/%dw\n",
			m.Duration, m.TotalWords,
			m.Hook.Seconds, m.Hook.Words,
			m.Bridge.Seconds, m.Bridge.Words,
			m.Nugget.Seconds, m.Nugget.Words,
			m.WTA.Seconds, m.WTA.Words,
		)
	}
	fmt.Fprintf(tw, "\n%.1f words/second\n", budget.WordsPerSecond)
	return tw.Flush()
}

func newValidateCmd() *cobra.Command {
	var f requestFlags
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Sanitize and validate a generation request without calling the model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res := validate.New().Validate(f.request())
			if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if !res.IsValid {
				return fmt.Errorf("request is invalid: %s", strings.Join(res.Errors, "; "))
			}
			return nil
		},
	}
	f.bind(cmd)
	return cmd
}

func newExamplesCmd() *cobra.Command {
	var (
		category string
		tone     string
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "examples",
		Short: "List hook examples from the built-in library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lib, err := library.Load()
			if err != nil {
				return err
			}
			if category == "" && tone == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "categories: %s\n", strings.Join(lib.Categories(), ", "))
			}
			return writeJSON(cmd.OutOrStdout(), lib.GetExamples(library.Filter{
				Category: category,
				Tone:     tone,
				Limit:    limit,
			}))
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "hook category")
	cmd.Flags().StringVar(&tone, "tone", "", "tone")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of examples (0 = all)")
	return cmd
}

func newGenerateCmd() *cobra.Command {
	var (
		f         requestFlags
		configDir string
		userID    string
		count     int
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run the full generation pipeline once, without persistence",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadFrom(configDir)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger.InitWithWriter(cmd.ErrOrStderr(), cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)

			ctx := cmd.Context()
			svc, err := wire.InitializeOfflineService(ctx, cfg, entity.ScriptContext{})
			if err != nil {
				return fmt.Errorf("init pipeline: %w", err)
			}

			req := f.request()
			if count > 1 {
				scripts, err := svc.GenerateVariations(ctx, req, userID, count)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), scripts)
			}
			script, err := svc.GenerateScript(ctx, req, userID)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), script)
		},
	}
	f.bind(cmd)
	cmd.Flags().StringVar(&configDir, "config", "configs", "config directory")
	cmd.Flags().StringVar(&userID, "user", "cli", "user id recorded in metadata")
	cmd.Flags().IntVar(&count, "count", 1, "number of variations")
	return cmd
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
