// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates concrete implementations and
// injects them into the tools, prompts and resources that depend on
// interfaces. No business logic lives here, only wiring.
package server

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/HendryAvila/minto/internal/config"
	"github.com/HendryAvila/minto/internal/logging"
	"github.com/HendryAvila/minto/internal/prompts"
	"github.com/HendryAvila/minto/internal/resources"
	"github.com/HendryAvila/minto/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts and
// resources registered.
//
// The returned cleanup function stops the run sweeper and closes the
// archive. It is always non-nil and safe to call even if New failed.
func New(cfg *config.Config, logger *zap.Logger) (*server.MCPServer, func(), error) {
	logger = logging.OrNop(logger)

	c, cleanup, err := Build(cfg, logger)
	if err != nil {
		return nil, noop, err
	}

	s := server.NewMCPServer(
		"minto",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register pipeline tools ---

	planTool := tools.NewPlanTool(c.Engine)
	s.AddTool(planTool.Definition(), planTool.Handle)

	validateTool := tools.NewValidateMECETool(c.Engine)
	s.AddTool(validateTool.Definition(), validateTool.Handle)

	evidenceTool := tools.NewRunEvidenceTool(c.Engine)
	s.AddTool(evidenceTool.Definition(), evidenceTool.Handle)

	synthesizeTool := tools.NewSynthesizeTool(c.Engine)
	s.AddTool(synthesizeTool.Definition(), synthesizeTool.Handle)

	critiqueTool := tools.NewCritiqueTool(c.Engine)
	s.AddTool(critiqueTool.Definition(), critiqueTool.Handle)

	finalizeTool := tools.NewFinalizeTool(c.Engine)
	s.AddTool(finalizeTool.Definition(), finalizeTool.Handle)

	reviseTool := tools.NewReviseTool(c.Engine)
	s.AddTool(reviseTool.Definition(), reviseTool.Handle)

	statusTool := tools.NewStatusTool(c.Engine)
	s.AddTool(statusTool.Definition(), statusTool.Handle)

	listTool := tools.NewListTool(c.Engine)
	s.AddTool(listTool.Definition(), listTool.Handle)

	discardTool := tools.NewDiscardTool(c.Engine)
	s.AddTool(discardTool.Definition(), discardTool.Handle)

	principlesTool := tools.NewPrinciplesTool(c.Renderer, c.Principles)
	s.AddTool(principlesTool.Definition(), principlesTool.Handle)

	// --- Register archive tools ---
	//
	// The archive is an independent subsystem: without it the pipeline
	// still works and finalize simply skips archiving.

	if c.Archive != nil {
		searchTool := tools.NewArchiveSearchTool(c.Archive)
		s.AddTool(searchTool.Definition(), searchTool.Handle)

		statsTool := tools.NewArchiveStatsTool(c.Archive)
		s.AddTool(statsTool.Definition(), statsTool.Handle)

		deleteTool := tools.NewArchiveDeleteTool(c.Archive)
		s.AddTool(deleteTool.Definition(), deleteTool.Handle)
	}

	// --- Register prompts ---

	startPrompt := prompts.NewStartPrompt()
	s.AddPrompt(startPrompt.Definition(), startPrompt.Handle)

	statusPrompt := prompts.NewStatusPrompt()
	s.AddPrompt(statusPrompt.Definition(), statusPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(c.Engine, c.Renderer, c.Principles)
	s.AddResource(resourceHandler.PrinciplesResource(), resourceHandler.HandlePrinciples)
	s.AddResource(resourceHandler.RunsResource(), resourceHandler.HandleRuns)

	logger.Info("mcp server ready",
		zap.String("version", Version),
		zap.String("search_provider", c.SourceName),
		zap.Bool("archive", c.Archive != nil),
	)
	return s, cleanup, nil
}

func noop() {}

// serverInstructions returns the system instructions that tell the AI
// how to use the server.
func serverInstructions() string {
	return fmt.Sprintf(`You have access to Minto, a Minto Pyramid Principle analysis server (v%s).

## WHEN TO USE IT

Use Minto when the user wants a structured, top-down answer to a business,
technical, scientific or policy question: recommendations, briefings,
executive summaries, problem decompositions.

## WORKFLOW

1. pyramid_plan: classify the brief and propose 3-4 MECE categories.
2. pyramid_validate_mece: check overlaps, gaps, category count and kind.
   If it fails, propose better titles and call pyramid_revise.
3. pyramid_run_evidence: gather evidence for all categories (stage="all")
   or one reason id.
4. pyramid_synthesize: render markdown, json or both.
5. pyramid_critique: score the pyramid against the quality gate.
6. pyramid_finalize: export the deliverable. If the critique failed,
   explain why and revise instead of forcing.

Stages must run in this order. Errors come back as JSON with an "error"
field and usually a "hint" naming the next valid step.

## REFERENCE

pyramid_principles (or the minto://principles resource) explains the rules.
pyramid_status and pyramid_list show progress; pyramid_discard drops a run
you no longer need. When the archive is enabled, past deliverables can be
searched with pyramid_archive_search, summarized with pyramid_archive_stats
and removed with pyramid_archive_delete.`, Version)
}
