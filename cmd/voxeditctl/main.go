package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/sourcegraph/conc/iter"

	"github.com/voxedit-io/voxedit/internal/agent"
	"github.com/voxedit-io/voxedit/internal/config"
	"github.com/voxedit-io/voxedit/internal/connector"
	"github.com/voxedit-io/voxedit/internal/provider"
	"github.com/voxedit-io/voxedit/internal/tool"
	"github.com/voxedit-io/voxedit/pkg/protocol"
)

// exampleCommands are the requests both harnesses start with.
var exampleCommands = []string{
	"Read the current paragraph",
	"Move to the next heading and read it",
	"Select the current sentence and make it bold",
	"Find the word 'accessibility' in the document",
	"What's the weather today and what time is it?",
	"Increase the text-to-speech speed to 1.5",
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}
	config.LoadDotEnv()

	switch os.Args[1] {
	case "run":
		cmdRun(os.Args[2:])
	case "send":
		cmdSend(os.Args[2:])
	case "health":
		cmdHealth()
	case "tools":
		cmdTools()
	case "history":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: voxeditctl history <list|show>")
			os.Exit(1)
		}
		switch os.Args[2] {
		case "list":
			cmdHistoryList(os.Args[3:])
		case "show":
			if len(os.Args) < 4 {
				fmt.Fprintln(os.Stderr, "usage: voxeditctl history show <id>")
				os.Exit(1)
			}
			cmdHistoryShow(os.Args[3])
		default:
			fmt.Fprintf(os.Stderr, "unknown history subcommand: %s\n", os.Args[2])
			os.Exit(1)
		}
	case "logs":
		cmdLogs(os.Args[2:])
	case "config":
		if len(os.Args) < 4 || os.Args[2] != "validate" {
			fmt.Fprintln(os.Stderr, "usage: voxeditctl config validate <path>")
			os.Exit(1)
		}
		cmdConfigValidate(os.Args[3])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// --- run command (in-process dispatcher) ---

func cmdRun(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	provType := fs.String("provider", envOr("VOXEDIT_PROVIDER", config.ProviderOpenAI), "Provider type: openai, anthropic or local")
	model := fs.String("model", envOr("VOXEDIT_MODEL", ""), "LLM model name")
	apiKey := fs.String("api-key", "", "API key (or set OPENAI_API_KEY / ANTHROPIC_API_KEY)")
	baseURL := fs.String("base-url", envOr("VOXEDIT_BASE_URL", ""), "Override API base URL")
	prompt := fs.String("prompt", "", "Single command (omit to run the examples, then interactive)")
	verbose := fs.Bool("v", false, "Verbose logging")
	fs.Parse(args)

	// Resolve API key from env if not passed as flag
	if *apiKey == "" {
		switch *provType {
		case config.ProviderAnthropic:
			*apiKey = os.Getenv("ANTHROPIC_API_KEY")
		case config.ProviderOpenAI:
			*apiKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	if *apiKey == "" && *provType != config.ProviderLocal {
		fmt.Fprintln(os.Stderr, "error: API key required (--api-key, OPENAI_API_KEY, or ANTHROPIC_API_KEY); use --provider local to run offline")
		os.Exit(1)
	}

	logLevel := slog.LevelWarn
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	var prov provider.Provider
	switch *provType {
	case config.ProviderLocal:
		prov = provider.NewLocal()
	case config.ProviderAnthropic:
		var opts []provider.AnthropicOption
		if *model != "" {
			opts = append(opts, provider.WithAnthropicModel(*model))
		}
		if *baseURL != "" {
			opts = append(opts, provider.WithAnthropicBaseURL(*baseURL))
		}
		prov = provider.NewAnthropic(*apiKey, opts...)
	default:
		var opts []provider.OpenAIOption
		if *model != "" {
			opts = append(opts, provider.WithModel(*model))
		}
		if *baseURL != "" {
			opts = append(opts, provider.WithBaseURL(*baseURL))
		}
		prov = provider.NewOpenAI(*apiKey, opts...)
	}

	reg := tool.NewRegistry()
	for _, t := range tool.EditorTools(tool.Options{}) {
		reg.Register(t)
	}

	a := agent.New(protocol.AssistantSpec{ID: "voxeditctl"}, prov, reg)
	a.Logger = logger
	a.Model = *model
	ctx := context.Background()

	run := func(command string) {
		result, err := a.Execute(ctx, command)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return
		}
		printTrace(os.Stdout, result.ProcessDetails)
		fmt.Printf("\nFinal Response: %s\n", result.FinalResponse)
	}

	if *prompt != "" {
		run(*prompt)
		return
	}

	for i, command := range exampleCommands {
		fmt.Printf("\n--- Example %d ---\n", i+1)
		fmt.Printf("User Request: %s\n", command)
		run(command)
	}

	fmt.Println("\nvoxeditctl interactive mode (type 'exit' or 'quit' to leave)")
	fmt.Printf("Provider: %s | Tools: %d\n", prov.Name(), reg.Len())
	interactive("> ", run)
}

// --- send command (HTTP harness) ---

func cmdSend(args []string) {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	trace := fs.Bool("trace", false, "Print the process details of each command")
	parallel := fs.Bool("parallel", false, "Send the example commands concurrently")
	noInteractive := fs.Bool("no-interactive", false, "Exit after the example commands")
	fs.Parse(args)

	commands := exampleCommands
	if fs.NArg() > 0 {
		commands = []string{strings.Join(fs.Args(), " ")}
	}

	fmt.Println("Testing Text Editor Accessibility API")
	fmt.Println(strings.Repeat("=", 50))

	if *parallel {
		outputs := iter.Map(commands, func(command *string) string {
			var buf bytes.Buffer
			sendCommand(&buf, *command, *trace)
			return buf.String()
		})
		for _, out := range outputs {
			fmt.Print(out)
		}
	} else {
		for _, command := range commands {
			sendCommand(os.Stdout, command, *trace)
		}
	}

	if *noInteractive || fs.NArg() > 0 {
		return
	}
	fmt.Println("\nInteractive Mode (type 'exit' to quit):")
	interactive("\nYour command: ", func(command string) {
		sendCommand(os.Stdout, command, *trace)
	})
}

func sendCommand(w io.Writer, command string, trace bool) {
	payload, _ := json.Marshal(map[string]string{"command": command})
	body, err := apiDo(http.MethodPost, "/api/command", payload, 2*time.Minute)
	if err != nil {
		fmt.Fprintf(w, "Command: %s\nError: %v\n%s\n", command, err, strings.Repeat("-", 50))
		return
	}

	var result protocol.CommandResult
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Fprintf(w, "Command: %s\nError: decode response: %v\n%s\n", command, err, strings.Repeat("-", 50))
		return
	}
	fmt.Fprintf(w, "Command: %s\n", result.Command)
	if trace {
		printTrace(w, result.ProcessDetails)
	}
	fmt.Fprintf(w, "Response: %s\n", result.FinalResponse)
	fmt.Fprintln(w, strings.Repeat("-", 50))
}

// --- API client commands ---

func cmdHealth() {
	body, err := apiGet("/api/health")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(body))
}

func cmdTools() {
	body, err := apiGet("/api/tools")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	var resp struct {
		Tools []protocol.ToolSpec `json:"tools"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(connector.ToolsText(resp.Tools))
}

func cmdHistoryList(args []string) {
	fs := flag.NewFlagSet("history list", flag.ExitOnError)
	status := fs.String("status", "", "Filter by status (ok|error)")
	source := fs.String("source", "", "Filter by source (api|telegram|slack)")
	search := fs.String("q", "", "Search command and response text")
	limit := fs.Int("limit", 50, "Max results")
	fs.Parse(args)

	query := url.Values{}
	query.Set("limit", fmt.Sprint(*limit))
	if *status != "" {
		query.Set("status", *status)
	}
	if *source != "" {
		query.Set("source", *source)
	}
	if *search != "" {
		query.Set("q", *search)
	}

	body, err := apiGet("/api/history?" + query.Encode())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	var entries []map[string]any
	json.Unmarshal(body, &entries)
	for _, e := range entries {
		fmt.Printf("%-36s %-6s %-9s %s\n", e["id"], e["status"], e["source"], e["command"])
	}
}

func cmdHistoryShow(id string) {
	body, err := apiGet("/api/history/" + url.PathEscape(id))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(prettyJSON(body))
}

func cmdLogs(args []string) {
	fs := flag.NewFlagSet("logs", flag.ExitOnError)
	level := fs.String("level", "", "Minimum level (debug|info|warn|error)")
	commandID := fs.String("command", "", "Only entries for this command ID")
	limit := fs.Int("limit", 100, "Max entries")
	fs.Parse(args)

	query := url.Values{}
	query.Set("limit", fmt.Sprint(*limit))
	if *level != "" {
		query.Set("level", *level)
	}
	if *commandID != "" {
		query.Set("command_id", *commandID)
	}

	body, err := apiGet("/api/logs?" + query.Encode())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	var entries []struct {
		Time    time.Time `json:"time"`
		Level   string    `json:"level"`
		Message string    `json:"message"`
	}
	json.Unmarshal(body, &entries)
	for _, e := range entries {
		fmt.Printf("%s %-5s %s\n", e.Time.Format(time.TimeOnly), e.Level, e.Message)
	}
}

func cmdConfigValidate(path string) {
	_, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("config is valid")
}

// --- Helpers ---

// printTrace writes process details the way the command dashboard shows them.
func printTrace(w io.Writer, steps []protocol.ProcessStep) {
	fmt.Fprintln(w, "\nProcess:")
	for _, step := range steps {
		switch step.Type {
		case protocol.StepAIThinking:
			fmt.Fprintf(w, "\nAI thinking:\n- %s\n", step.Content)
			for _, call := range step.ToolCalls {
				args, _ := json.Marshal(call.Args)
				fmt.Fprintf(w, "\nTool Called: %s\nTool Arguments: %s\n", call.Name, args)
			}
		case protocol.StepToolResponse:
			fmt.Fprintf(w, "\nTool Response (%s):\n- %s\n", step.Name, step.Content)
		case protocol.StepHuman:
			fmt.Fprintf(w, "\nHuman:\n- %s\n", step.Content)
		default:
			fmt.Fprintf(w, "\nAI:\n- %s\n", step.Content)
		}
	}
}

func interactive(prompt string, handle func(string)) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(prompt)
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if l := strings.ToLower(line); l == "quit" || l == "exit" {
			break
		}
		handle(line)
	}
}

func apiGet(path string) ([]byte, error) {
	return apiDo(http.MethodGet, path, nil, 10*time.Second)
}

func apiDo(method, path string, payload []byte, timeout time.Duration) ([]byte, error) {
	base := strings.TrimRight(envOr("VOXEDIT_API_URL", "http://localhost:5001"), "/")

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, base+path, reqBody)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if key := os.Getenv("VOXEDIT_API_KEY"); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

func prettyJSON(data []byte) string {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return string(data)
	}
	out, _ := json.MarshalIndent(v, "", "  ")
	return string(out)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printUsage() {
	fmt.Println("voxeditctl: accessibility assistant CLI")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  run                  Run the example commands in-process, then interactive")
	fmt.Println("  send [command]       Send commands to the daemon (-trace, -parallel)")
	fmt.Println("  health               Check daemon health")
	fmt.Println("  tools                List the tool catalog by category")
	fmt.Println("  history list         List journaled commands (-status, -source, -q, -limit)")
	fmt.Println("  history show <id>    Show a journaled command")
	fmt.Println("  logs                 Show recent daemon logs (-level, -command, -limit)")
	fmt.Println("  config validate <p>  Validate config file")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  VOXEDIT_API_URL    Daemon URL (default: http://localhost:5001)")
	fmt.Println("  VOXEDIT_API_KEY    API key for authentication")
	fmt.Println("  VOXEDIT_PROVIDER   Provider for run: openai (default), anthropic or local")
	fmt.Println("  OPENAI_API_KEY     API key for OpenAI provider")
	fmt.Println("  ANTHROPIC_API_KEY  API key for Anthropic provider")
}
