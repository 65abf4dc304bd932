// Package tools registers the gateway's representative read-only
// financial-data tool wrappers onto a tool-protocol server.MCPServer.
package tools

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/finmcp/gateway/pkg/upstream"
)

// Register adds the gateway's tool wrappers to mcpServer, each backed by
// sink for upstream calls.
func Register(mcpServer *server.MCPServer, sink *upstream.Sink) {
	mcpServer.AddTool(mcp.Tool{
		Name:        "quote",
		Description: "Get the latest quote for a stock symbol",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"symbol": map[string]interface{}{
					"type":        "string",
					"description": "Ticker symbol, e.g. AAPL",
				},
			},
			Required: []string{"symbol"},
		},
	}, quoteHandler(sink))

	mcpServer.AddTool(mcp.Tool{
		Name:        "company_profile",
		Description: "Get company profile information for a stock symbol",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"symbol": map[string]interface{}{
					"type":        "string",
					"description": "Ticker symbol, e.g. AAPL",
				},
			},
			Required: []string{"symbol"},
		},
	}, companyProfileHandler(sink))

	mcpServer.AddTool(mcp.Tool{
		Name:        "search_symbols",
		Description: "Search for ticker symbols matching a free-text query",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"q": map[string]interface{}{
					"type":        "string",
					"description": "Free-text search query",
				},
			},
			Required: []string{"q"},
		},
	}, searchSymbolsHandler(sink))

	mcpServer.AddTool(mcp.Tool{
		Name:        "news",
		Description: "Get recent news articles for a stock symbol",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"symbol": map[string]interface{}{
					"type":        "string",
					"description": "Ticker symbol, e.g. AAPL",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of articles to return",
				},
			},
			Required: []string{"symbol"},
		},
	}, newsHandler(sink))

	mcpServer.AddTool(mcp.Tool{
		Name:        "financial_statements",
		Description: "Get a company's financial statements",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"symbol": map[string]interface{}{
					"type":        "string",
					"description": "Ticker symbol, e.g. AAPL",
				},
				"statement": map[string]interface{}{
					"type":        "string",
					"description": "One of income, balance, cashflow",
				},
			},
			Required: []string{"symbol", "statement"},
		},
	}, financialStatementsHandler(sink))
}

func quoteHandler(sink *upstream.Sink) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := struct {
			Symbol string `json:"symbol"`
		}{}
		if err := req.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse arguments: %v", err)), nil
		}
		if args.Symbol == "" {
			return mcp.NewToolResultError("symbol is required"), nil
		}

		result, err := sink.Get(ctx, "/v1/quote", url.Values{"symbol": {args.Symbol}})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultStructuredOnly(result), nil
	}
}

func companyProfileHandler(sink *upstream.Sink) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := struct {
			Symbol string `json:"symbol"`
		}{}
		if err := req.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse arguments: %v", err)), nil
		}
		if args.Symbol == "" {
			return mcp.NewToolResultError("symbol is required"), nil
		}

		result, err := sink.Get(ctx, "/v1/profile", url.Values{"symbol": {args.Symbol}})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultStructuredOnly(result), nil
	}
}

func searchSymbolsHandler(sink *upstream.Sink) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := struct {
			Q string `json:"q"`
		}{}
		if err := req.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse arguments: %v", err)), nil
		}
		if args.Q == "" {
			return mcp.NewToolResultError("q is required"), nil
		}

		result, err := sink.Get(ctx, "/v1/search", url.Values{"q": {args.Q}})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultStructuredOnly(result), nil
	}
}

func newsHandler(sink *upstream.Sink) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := struct {
			Symbol string `json:"symbol"`
			Limit  int    `json:"limit,omitempty"`
		}{}
		if err := req.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse arguments: %v", err)), nil
		}
		if args.Symbol == "" {
			return mcp.NewToolResultError("symbol is required"), nil
		}

		query := url.Values{"symbol": {args.Symbol}}
		if args.Limit > 0 {
			query.Set("limit", strconv.Itoa(args.Limit))
		}

		result, err := sink.Get(ctx, "/v1/news", query)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultStructuredOnly(result), nil
	}
}

func financialStatementsHandler(sink *upstream.Sink) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := struct {
			Symbol    string `json:"symbol"`
			Statement string `json:"statement"`
		}{}
		if err := req.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse arguments: %v", err)), nil
		}
		if args.Symbol == "" || args.Statement == "" {
			return mcp.NewToolResultError("symbol and statement are required"), nil
		}

		result, err := sink.Get(ctx, "/v1/financials", url.Values{
			"symbol":    {args.Symbol},
			"statement": {args.Statement},
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultStructuredOnly(result), nil
	}
}
