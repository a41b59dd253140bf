// Package mcp exposes the quote-and-compose engine as MCP (Model Context
// Protocol) tools, so agent runtimes can resolve tokens, fetch swap quotes
// and compose batch payments without speaking the HTTP API.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	mcpproto "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/plagtech/spraay-x402-gateway"
	"github.com/plagtech/spraay-x402-gateway/compose"
	"github.com/plagtech/spraay-x402-gateway/quote"
)

// Server wraps an MCP server with the engine's tool set.
type Server struct {
	mcpServer *mcpserver.MCPServer
	registry  *spraay.Registry
	router    *quote.Router
	composer  *compose.Composer
}

// NewServer creates an MCP server exposing resolve_token, quote_swap and
// compose_batch over the given engine components.
func NewServer(name, version string, registry *spraay.Registry, router *quote.Router, composer *compose.Composer) *Server {
	s := &Server{
		mcpServer: mcpserver.NewMCPServer(name, version),
		registry:  registry,
		router:    router,
		composer:  composer,
	}

	resolveTool := mcpproto.NewTool(
		"resolve_token",
		mcpproto.WithDescription("Resolve a token symbol or address to its canonical on-chain metadata"),
		mcpproto.WithString("token", mcpproto.Required(), mcpproto.Description("Token symbol, native-asset keyword or 0x address")),
	)
	s.mcpServer.AddTool(resolveTool, s.handleResolveToken)

	quoteTool := mcpproto.NewTool(
		"quote_swap",
		mcpproto.WithDescription("Find the best available swap output across fee tiers and bridge routes"),
		mcpproto.WithString("token_in", mcpproto.Required(), mcpproto.Description("Input token symbol or address")),
		mcpproto.WithString("token_out", mcpproto.Required(), mcpproto.Description("Output token symbol or address")),
		mcpproto.WithString("amount", mcpproto.Required(), mcpproto.Description("Human-readable input amount, e.g. \"25.50\"")),
	)
	s.mcpServer.AddTool(quoteTool, s.handleQuoteSwap)

	composeTool := mcpproto.NewTool(
		"compose_batch",
		mcpproto.WithDescription("Compose the signed-ready contract calls for a batch payment"),
		mcpproto.WithString("token", mcpproto.Required(), mcpproto.Description("Token symbol or address all recipients are paid in")),
		mcpproto.WithString("recipients", mcpproto.Required(), mcpproto.Description(`JSON array of {"address", "amount"} entries`)),
		mcpproto.WithString("memo", mcpproto.Description("Optional on-chain memo")),
		mcpproto.WithNumber("agent_id", mcpproto.Description("Optional non-zero agent identifier")),
		mcpproto.WithString("version", mcpproto.Description("Spray contract version: v2 or v3 (default v3)")),
	)
	s.mcpServer.AddTool(composeTool, s.handleComposeBatch)

	return s
}

// Handler returns the streamable HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return mcpserver.NewStreamableHTTPServer(s.mcpServer)
}

// Start serves the MCP server on the given address.
func (s *Server) Start(addr string) error {
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleResolveToken(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	args := req.GetArguments()
	token, _ := args["token"].(string)

	desc, err := s.registry.Resolve(token)
	if err != nil {
		return toolError(err), nil
	}
	return toolJSON(desc)
}

func (s *Server) handleQuoteSwap(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	args := req.GetArguments()
	tokenInArg, _ := args["token_in"].(string)
	tokenOutArg, _ := args["token_out"].(string)
	amountArg, _ := args["amount"].(string)

	tokenIn, err := s.registry.Resolve(tokenInArg)
	if err != nil {
		return toolError(err), nil
	}
	tokenOut, err := s.registry.Resolve(tokenOutArg)
	if err != nil {
		return toolError(err), nil
	}
	amountIn, err := spraay.ToBaseUnits(amountArg, tokenIn.Decimals)
	if err != nil {
		return toolError(err), nil
	}

	result, err := s.router.Quote(ctx, spraay.QuoteRequest{
		TokenIn:  tokenIn,
		TokenOut: tokenOut,
		AmountIn: amountIn,
	})
	if err != nil {
		return toolError(err), nil
	}
	return toolJSON(result)
}

func (s *Server) handleComposeBatch(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	args := req.GetArguments()
	tokenArg, _ := args["token"].(string)
	recipientsArg, _ := args["recipients"].(string)
	memo, _ := args["memo"].(string)
	version, _ := args["version"].(string)
	var agentID uint64
	if raw, ok := args["agent_id"].(float64); ok {
		agentID = uint64(raw)
	}

	var recipients []spraay.RecipientEntry
	if err := json.Unmarshal([]byte(recipientsArg), &recipients); err != nil {
		return toolErrorText(fmt.Sprintf("recipients is not a valid JSON array: %v", err)), nil
	}

	token, err := s.registry.Resolve(tokenArg)
	if err != nil {
		return toolError(err), nil
	}

	batch, err := s.composer.Compose(spraay.BatchIntent{
		Token:      token,
		Recipients: recipients,
		Memo:       memo,
		AgentID:    agentID,
		Version:    spraay.ContractVersion(version),
	})
	if err != nil {
		return toolError(err), nil
	}
	return toolJSON(batch)
}

func toolJSON(value interface{}) (*mcpproto.CallToolResult, error) {
	encoded, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode tool result: %w", err)
	}
	return &mcpproto.CallToolResult{
		Content: []mcpproto.Content{mcpproto.NewTextContent(string(encoded))},
	}, nil
}

func toolError(err error) *mcpproto.CallToolResult {
	message := err.Error()
	if code, ok := spraay.CodeForError(err); ok {
		message = fmt.Sprintf("%s: %s", code, message)
	}
	return toolErrorText(message)
}

func toolErrorText(message string) *mcpproto.CallToolResult {
	return &mcpproto.CallToolResult{
		IsError: true,
		Content: []mcpproto.Content{mcpproto.NewTextContent(message)},
	}
}
