package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/minto/internal/engine"
	"github.com/HendryAvila/minto/internal/pyramid"
	mintoserver "github.com/HendryAvila/minto/internal/server"
)

var analyzeFlags struct {
	brief    string
	audience string
	format   string
	output   string
	force    bool
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [brief]",
	Short: "Run a full pyramid analysis and print the deliverable",
	Long: `Runs plan, evidence, synthesis, critique and finalize for one brief
without an MCP host, then prints the deliverable.

Usage:
  minto analyze "Reduce supplier costs"
  minto analyze --brief "Design a distributed cache" --format both -o out.md

If the critique fails the synthesized draft is still printed and the
command exits non-zero. Pass --force to finalize anyway.`,
	Args: cobra.ArbitraryArgs,
	RunE: runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&analyzeFlags.brief, "brief", "", "Question to analyze (or pass it as arguments)")
	f.StringVar(&analyzeFlags.audience, "audience", "", "Who the deliverable is for")
	f.StringVar(&analyzeFlags.format, "format", pyramid.FormatMarkdown, "Output format: markdown, json or both")
	f.StringVarP(&analyzeFlags.output, "output", "o", "", "Write the deliverable to this file instead of stdout")
	f.BoolVar(&analyzeFlags.force, "force", false, "Finalize even if the critique fails")
}

// errCritiqueFailed marks a draft that did not clear the quality gate.
var errCritiqueFailed = errors.New("critique did not pass; rerun with --force to finalize anyway")

func runAnalyze(cmd *cobra.Command, args []string) error {
	brief := analyzeFlags.brief
	if brief == "" {
		brief = strings.Join(args, " ")
	}
	if strings.TrimSpace(brief) == "" {
		return fmt.Errorf("a brief is required\n\nUsage: minto analyze \"<question>\"")
	}
	if err := pyramid.ValidateFormat(analyzeFlags.format); err != nil {
		return err
	}

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	c, cleanup, err := mintoserver.Build(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out, critique, err := analyze(ctx, c.Engine, brief)
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	fmt.Fprintf(stderr, "%s\n", critique.Summary)
	for _, a := range critique.Aspects {
		mark := "ok"
		if !a.Passed {
			mark = "below floor"
		}
		fmt.Fprintf(stderr, "  %-26s %.2f  %s\n", a.Name, a.Score, mark)
	}

	var gateErr error
	if critique.Passed || analyzeFlags.force {
		fin, err := c.Engine.Finalize(ctx, out.RunID, analyzeFlags.format, analyzeFlags.force)
		if err != nil {
			return err
		}
		out.Markdown, out.JSON = fin.Markdown, fin.JSON
		for _, w := range fin.Warnings {
			fmt.Fprintf(stderr, "warning: %s\n", w)
		}
	} else {
		gateErr = errCritiqueFailed
	}

	if err := write(cmd.OutOrStdout(), out); err != nil {
		return err
	}
	return gateErr
}

// analyze runs every stage up to critique with the requested format.
func analyze(ctx context.Context, e *engine.Engine, brief string) (*engine.SynthesisResult, *pyramid.CritiqueResult, error) {
	plan, err := e.Plan(brief, analyzeFlags.audience, nil)
	if err != nil {
		return nil, nil, err
	}
	if _, err := e.RunEvidence(ctx, plan.RunID, "all"); err != nil {
		return nil, nil, err
	}
	out, err := e.Synthesize(plan.RunID, analyzeFlags.format)
	if err != nil {
		return nil, nil, err
	}
	critique, err := e.Critique(plan.RunID)
	if err != nil {
		return nil, nil, err
	}
	return out, critique, nil
}

func write(stdout io.Writer, out *engine.SynthesisResult) error {
	var b strings.Builder
	b.WriteString(out.Markdown)
	if len(out.JSON) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.Write(out.JSON)
		b.WriteString("\n")
	}

	if analyzeFlags.output == "" {
		_, err := io.WriteString(stdout, b.String())
		return err
	}
	if err := os.WriteFile(analyzeFlags.output, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", analyzeFlags.output, err)
	}
	return nil
}
