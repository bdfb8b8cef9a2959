package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/boletim"
	diagram "github.com/aretw0/boletim/internal/presentation/graph"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// GraphURI is the resource exposing the interview diagram.
const GraphURI = "boletim://graph"

// SessionArgs identifies a session.
type SessionArgs struct {
	SessionID string `json:"session_id"`
}

// AnswerArgs carries an answer for a step.
type AnswerArgs struct {
	SessionID string `json:"session_id"`
	StepID    string `json:"step_id"`
	Text      string `json:"text"`
}

// DraftArgs carries a client draft in its wire form.
type DraftArgs struct {
	SessionID string `json:"session_id"`
	Draft     string `json:"draft"`
}

// NarrativeArgs identifies a completed section.
type NarrativeArgs struct {
	SessionID string `json:"session_id"`
	SectionID string `json:"section_id"`
}

// NarrativeResult is returned by generate_narrative.
type NarrativeResult struct {
	Text string `json:"text"`
}

// Server wraps the boletim Engine and exposes it as an MCP Server.
type Server struct {
	engine    *boletim.Engine
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(engine *boletim.Engine) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("boletim-mcp", strings.TrimSpace(boletim.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCP returns the underlying server, mainly for in-process transports and tests.
func (s *Server) MCP() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("start_session",
		mcp.WithDescription("Start a new interview session and return its first question."),
		mcp.WithOutputSchema[boletim.StartResult](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("submit_answer",
		mcp.WithDescription("Answer the current question. Rejected answers come back with accepted=false and a message to show the user."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("step_id", mcp.Description("Step being answered (optional, checked against the current step)")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Answer text")),
		mcp.WithOutputSchema[boletim.SubmitResult](),
	), mcp.NewStructuredToolHandler(s.handleSubmit))

	s.mcpServer.AddTool(mcp.NewTool("update_answer",
		mcp.WithDescription("Correct an already recorded answer without changing the walk."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("step_id", mcp.Required(), mcp.Description("Step to correct")),
		mcp.WithString("text", mcp.Required(), mcp.Description("New answer text")),
		mcp.WithOutputSchema[boletim.UpdateResult](),
	), mcp.NewStructuredToolHandler(s.handleUpdate))

	s.mcpServer.AddTool(mcp.NewTool("get_progress",
		mcp.WithDescription("Report the progress of the active section."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[boletim.SessionProgress](),
	), mcp.NewStructuredToolHandler(s.handleProgress))

	s.mcpServer.AddTool(mcp.NewTool("get_answers",
		mcp.WithDescription("List the recorded answers of every started section, in order."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
	), s.handleAnswers)

	s.mcpServer.AddTool(mcp.NewTool("restore_draft",
		mcp.WithDescription("Restore a client-held draft. It replaces the session only when its version is newer."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("draft", mcp.Required(), mcp.Description("Draft snapshot as a JSON object")),
		mcp.WithOutputSchema[boletim.RestoreResult](),
	), mcp.NewStructuredToolHandler(s.handleRestore))

	s.mcpServer.AddTool(mcp.NewTool("generate_narrative",
		mcp.WithDescription("Request the narrative of a completed section again."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("section_id", mcp.Required(), mcp.Description("Completed section ID")),
		mcp.WithOutputSchema[NarrativeResult](),
	), mcp.NewStructuredToolHandler(s.handleNarrative))
}

func (s *Server) handleStart(ctx context.Context, _ mcp.CallToolRequest, _ struct{}) (boletim.StartResult, error) {
	return s.engine.StartSession(ctx)
}

func (s *Server) handleSubmit(ctx context.Context, _ mcp.CallToolRequest, args AnswerArgs) (boletim.SubmitResult, error) {
	res, err := s.engine.SubmitAnswer(ctx, args.SessionID, args.StepID, args.Text)
	if res.Drift {
		// Drift is reported in-band so the agent can re-ask the expected step
		return res, nil
	}
	if err != nil {
		return boletim.SubmitResult{}, fmt.Errorf("submit failed: %w", err)
	}
	return res, nil
}

func (s *Server) handleUpdate(ctx context.Context, _ mcp.CallToolRequest, args AnswerArgs) (boletim.UpdateResult, error) {
	res, err := s.engine.UpdateAnswer(ctx, args.SessionID, args.StepID, args.Text)
	if err != nil {
		return boletim.UpdateResult{}, fmt.Errorf("update failed: %w", err)
	}
	return res, nil
}

func (s *Server) handleProgress(ctx context.Context, _ mcp.CallToolRequest, args SessionArgs) (boletim.SessionProgress, error) {
	return s.engine.GetProgress(ctx, args.SessionID)
}

func (s *Server) handleAnswers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args SessionArgs
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	answers, err := s.engine.Answers(ctx, args.SessionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("answers failed: %v", err)), nil
	}
	data, _ := json.Marshal(answers)
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleRestore(ctx context.Context, _ mcp.CallToolRequest, args DraftArgs) (boletim.RestoreResult, error) {
	return s.engine.RestoreDraftJSON(ctx, args.SessionID, []byte(args.Draft))
}

func (s *Server) handleNarrative(ctx context.Context, _ mcp.CallToolRequest, args NarrativeArgs) (NarrativeResult, error) {
	text, err := s.engine.GenerateNarrative(ctx, args.SessionID, args.SectionID)
	if err != nil {
		return NarrativeResult{}, err
	}
	return NarrativeResult{Text: text}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(GraphURI, "Interview Diagram",
		mcp.WithResourceDescription("Mermaid flowchart of every section"),
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      GraphURI,
				MIMEType: "text/plain",
				Text:     diagram.GenerateMermaid(s.engine.Graph(), nil),
			},
		}, nil
	})
}
