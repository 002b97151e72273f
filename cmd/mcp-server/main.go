package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gilsentrycs/monitor-flights/config"
	"github.com/gilsentrycs/monitor-flights/dates"
	"github.com/gilsentrycs/monitor-flights/monitor"
	"github.com/gilsentrycs/monitor-flights/pkg/buildinfo"
	"github.com/gilsentrycs/monitor-flights/pkg/logger"
	"github.com/gilsentrycs/monitor-flights/pkg/prompt"
	"github.com/gilsentrycs/monitor-flights/serpapi"
)

func main() {
	// stdout carries the MCP protocol, so logs go to stderr
	log := logger.NewWithWriter(logger.Config{
		Level:  envOr("LOG_LEVEL", "info"),
		Format: envOr("LOG_FORMAT", "text"),
	}, os.Stderr)

	s := server.NewMCPServer(
		"monitor-flights-mcp",
		buildinfo.Version,
		server.WithLogging(),
	)

	planTool := mcp.NewTool("plan_dates",
		mcp.WithDescription("List the weekend date pairs a scan would search. Makes no API calls."),
		mcp.WithNumber("year", mcp.Required(), mcp.Description("Travel year, e.g. 2026")),
		mcp.WithNumber("start_month", mcp.Required(), mcp.Description("First month (1-12)")),
		mcp.WithNumber("end_month", mcp.Required(), mcp.Description("Last month (1-12)")),
		mcp.WithString("weekdays", mcp.Description("Departure weekdays, Monday=0 or names, comma separated (default: 2,3)")),
		mcp.WithNumber("trip_length", mcp.Description("Nights between departure and return (default: 4)")),
		mcp.WithNumber("target", mcp.Description("Number of pairs to sample; overrides strategy")),
		mcp.WithString("strategy", mcp.Description("Sampling strategy: conservative, weekly, comprehensive or complete (default: weekly)")),
	)
	s.AddTool(planTool, handlePlanDates)

	scanTool := mcp.NewTool("scan_route",
		mcp.WithDescription("Run one scan of the configured route and return the price analysis. Uses API quota; scans above CONFIRM_THRESHOLD searches are refused."),
		mcp.WithString("strategy", mcp.Description("Sampling strategy override")),
		mcp.WithNumber("max_dates", mcp.Description("Search at most this many date pairs")),
	)
	s.AddTool(scanTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleScanRoute(ctx, request, log)
	})

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
	}
}

type planArgs struct {
	Year       int
	StartMonth int
	EndMonth   int
	Weekdays   []int
	TripLength int
	Target     int
	Strategy   string
}

type planResponse struct {
	Candidates      int              `json:"candidates"`
	Sampled         int              `json:"sampled"`
	CoveragePercent float64          `json:"coverage_percent"`
	Pairs           []dates.DatePair `json:"pairs"`
}

func parsePlanArgs(argsMap map[string]interface{}) (planArgs, error) {
	yearVal, _ := argsMap["year"].(float64)
	startVal, _ := argsMap["start_month"].(float64)
	endVal, _ := argsMap["end_month"].(float64)
	a := planArgs{
		Year:       int(yearVal),
		StartMonth: int(startVal),
		EndMonth:   int(endVal),
		TripLength: 4,
	}
	if a.Year == 0 || a.StartMonth < 1 || a.EndMonth > 12 || a.StartMonth > a.EndMonth {
		return a, fmt.Errorf("year, start_month and end_month must describe a valid month range")
	}

	if v, ok := argsMap["trip_length"].(float64); ok && v > 0 {
		a.TripLength = int(v)
	}
	if v, ok := argsMap["target"].(float64); ok && v > 0 {
		a.Target = int(v)
	}
	a.Strategy, _ = argsMap["strategy"].(string)

	weekdaysStr, _ := argsMap["weekdays"].(string)
	if strings.TrimSpace(weekdaysStr) == "" {
		weekdaysStr = "2,3"
	}
	for _, part := range strings.Split(weekdaysStr, ",") {
		day, err := dates.ParseWeekday(part)
		if err != nil {
			return a, err
		}
		a.Weekdays = append(a.Weekdays, day)
	}
	return a, nil
}

func handlePlanDates(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	argsMap, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments format"), nil
	}
	a, err := parsePlanArgs(argsMap)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	candidates := dates.Enumerate(a.Year, a.StartMonth, a.EndMonth, a.Weekdays, a.TripLength)
	target := a.Target
	if target == 0 {
		target = dates.TargetFor(a.Strategy, len(candidates))
	}
	sampled := dates.Sample(candidates, target)

	return jsonResult(planResponse{
		Candidates:      len(candidates),
		Sampled:         len(sampled),
		CoveragePercent: dates.Coverage(len(sampled), len(candidates)),
		Pairs:           sampled,
	})
}

func handleScanRoute(ctx context.Context, request mcp.CallToolRequest, log *logger.Logger) (*mcp.CallToolResult, error) {
	argsMap, _ := request.Params.Arguments.(map[string]interface{})

	cfg, err := scanConfig(argsMap, config.Load)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client := serpapi.NewClient(serpapi.Options{
		APIKey:     cfg.SerpAPIConfig.APIKey,
		BaseURL:    cfg.SerpAPIConfig.BaseURL,
		Timeout:    cfg.SerpAPIConfig.Timeout,
		MaxRetries: cfg.SerpAPIConfig.MaxRetries,
	})
	service := monitor.NewService(cfg, monitor.Deps{
		Searcher: client,
		Confirm:  prompt.Fixed(false),
		Out:      io.Discard,
		Logger:   log,
	})

	res, err := service.Execute(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Scan failed: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"search_metadata": res.Report.SearchMetadata,
		"analysis":        res.Report.Analysis,
		"report_path":     res.ReportPath,
	})
}

// scanConfig applies the tool arguments to the loaded config. Nobody can confirm a
// large scan over stdio, so plans above the confirmation threshold are refused.
func scanConfig(argsMap map[string]interface{}, load func() (*config.Config, error)) (*config.Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if strategy, _ := argsMap["strategy"].(string); strategy != "" {
		cfg.SearchConfig.SamplingStrategy = strategy
	}
	if v, ok := argsMap["max_dates"].(float64); ok && v > 0 {
		cfg.SearchConfig.MaxDates = int(v)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.RequireCredentials(); err != nil {
		return nil, err
	}

	plan := monitor.NewService(cfg, monitor.Deps{}).Plan()
	if limit := cfg.SearchConfig.ConfirmThreshold; limit > 0 && plan.Calls() > limit {
		return nil, fmt.Errorf("scan needs %d searches, more than the %d allowed without confirmation; lower max_dates or pick a smaller strategy",
			plan.Calls(), limit)
	}
	return cfg, nil
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error marshaling response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
