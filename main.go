// agentchat TUI - A terminal client for the support agent streaming service.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/peterh/liner"
	"golang.org/x/term"

	"github.com/jeranaias/agentchat-tui/internal/agent"
	"github.com/jeranaias/agentchat-tui/internal/buffer"
	"github.com/jeranaias/agentchat-tui/internal/config"
	"github.com/jeranaias/agentchat-tui/internal/history"
	"github.com/jeranaias/agentchat-tui/internal/session"
	"github.com/jeranaias/agentchat-tui/internal/store"
	"github.com/jeranaias/agentchat-tui/internal/thread"
	"github.com/jeranaias/agentchat-tui/internal/ui/chat"
	"github.com/jeranaias/agentchat-tui/internal/ui/components"
	"github.com/jeranaias/agentchat-tui/internal/ui/styles"
	"github.com/jeranaias/agentchat-tui/internal/util"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	args := os.Args[1:]

	cmd := ""
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd = args[0]
		args = args[1:]
	}

	switch cmd {
	case "version":
		fmt.Printf("agentchat %s (%s, built %s)\n", Version, GitCommit, BuildDate)
	case "ask":
		runAsk(strings.Join(args, " "))
	case "chat":
		runREPL()
	case "search":
		runSearch(strings.Join(args, " "))
	case "help", "-h", "--help":
		printUsage()
	case "":
		// TUI needs a terminal; fall back to the plain REPL when piped.
		if term.IsTerminal(int(os.Stdout.Fd())) {
			runTUI()
		} else {
			runREPL()
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`agentchat - terminal client for the support agent

Usage:
  agentchat            Start the TUI (default)
  agentchat ask MSG    Send one message and print the response
  agentchat chat       Plain line-based REPL (no alternate screen)
  agentchat search Q   Search saved thread history
  agentchat version    Print version information

Environment:
  AGENTCHAT_BASE_URL   Agent service base URL
  AGENTCHAT_CLEANLAB   Enable/disable trust scoring (1/0)
  AGENTCHAT_THEME      Color theme (auto/dark/light)`)
}

// =============================================================================
// WIRING
// =============================================================================

// app holds the wired application components.
type app struct {
	cfg        *config.Config
	controller *session.Controller
	hist       *history.Store
	watcher    *history.Watcher
}

// buildApp loads config and wires the session stack.
func buildApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	historyPath, err := cfg.HistoryPath()
	if err != nil {
		return nil, fmt.Errorf("resolving history path: %w", err)
	}
	hist := history.Open(historyPath)

	client := agent.NewClientWithConfig(&agent.Config{
		BaseURL:    cfg.Server.BaseURL,
		StreamPath: cfg.Server.StreamPath,
	})

	controller := session.NewController(client, store.New(), buffer.NewRegistry(), hist,
		session.Options{
			CleanlabEnabled: cfg.Server.CleanlabEnabled,
			SendInterval:    cfg.SendInterval(),
			SendBurst:       cfg.Chat.SendBurst,
		})

	return &app{cfg: cfg, controller: controller, hist: hist}, nil
}

// startWatcher begins watching the history file when enabled by config.
func (a *app) startWatcher(onReload func()) {
	if !a.cfg.History.WatchEnabled {
		return
	}
	w, err := history.NewWatcher(a.hist, onReload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "history watcher unavailable: %v\n", err)
		return
	}
	if err := w.Watch(); err != nil {
		fmt.Fprintf(os.Stderr, "history watcher unavailable: %v\n", err)
		return
	}
	a.watcher = w
}

func (a *app) close() {
	if a.watcher != nil {
		a.watcher.Close()
	}
}

// =============================================================================
// TUI MODE
// =============================================================================

func runTUI() {
	a, err := buildApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer a.close()

	theme := styles.NewTheme()
	model := chat.New(a.controller, theme, a.cfg.UI.ShowTrustScores)
	a.startWatcher(model.NotifyHistoryReload)

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// ONE-SHOT ASK MODE
// =============================================================================

func runAsk(content string) {
	content = strings.TrimSpace(content)
	if content == "" {
		fmt.Fprintln(os.Stderr, "usage: agentchat ask <message>")
		os.Exit(1)
	}

	a, err := buildApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer a.close()

	updates := subscribe(a.controller)
	if err := sendAndPrint(a.controller, updates, content); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// PLAIN REPL MODE
// =============================================================================

func runREPL() {
	a, err := buildApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer a.close()

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	updates := subscribe(a.controller)

	fmt.Println("agentchat - type a message, :threads, :open <n>, :rate up|down, :retry, or :quit")

	for {
		input, err := line.Prompt("> ")
		if err != nil {
			// Ctrl+C or EOF
			fmt.Println()
			return
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if strings.HasPrefix(input, ":") {
			if done := handleREPLCommand(a, updates, input); done {
				return
			}
			continue
		}

		if err := sendAndPrint(a.controller, updates, input); err != nil {
			fmt.Println(styles.RenderError(err.Error()))
		}
	}
}

// handleREPLCommand executes a :command. Returns true when the REPL should
// exit.
func handleREPLCommand(a *app, updates <-chan struct{}, input string) bool {
	fields := strings.Fields(input)
	switch fields[0] {
	case ":quit", ":q", ":exit":
		return true

	case ":retry":
		if err := sendRetryAndPrint(a.controller, updates); err != nil {
			fmt.Println(styles.RenderError(err.Error()))
		}

	case ":new":
		a.controller.CloseThread()
		fmt.Println("started a new thread")

	case ":threads":
		threads := a.hist.List()
		if len(threads) == 0 {
			fmt.Println("no saved threads")
			return false
		}
		for i, th := range threads {
			fmt.Printf("%3d  %s\n", i+1, util.TruncateRunes(th.Title, 60))
		}

	case ":open":
		if len(fields) < 2 {
			fmt.Println("usage: :open <n>")
			return false
		}
		threads := a.hist.List()
		idx := parseIndex(fields[1], len(threads))
		if idx < 0 {
			fmt.Println("no such thread")
			return false
		}
		a.controller.OpenThread(threads[idx].ID, nil)
		printThread(a.controller)

	case ":rate":
		if len(fields) < 2 || (fields[1] != history.RatingUp && fields[1] != history.RatingDown) {
			fmt.Println("usage: :rate up|down")
			return false
		}
		cur := a.controller.Store().CurrentThread()
		if cur == nil || cur.ThreadID == "" {
			fmt.Println("nothing to rate yet")
			return false
		}
		a.hist.SetRating(cur.ThreadID, fields[1])
		fmt.Println("rated " + fields[1])

	case ":clear":
		a.hist.Clear()
		fmt.Println("history cleared")

	case ":search":
		if len(fields) < 2 {
			fmt.Println("usage: :search <query>")
			return false
		}
		searchHistory(a, strings.Join(fields[1:], " "))

	default:
		fmt.Printf("unknown command %s\n", fields[0])
	}
	return false
}

func parseIndex(s string, n int) int {
	idx := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return -1
		}
		idx = idx*10 + int(r-'0')
	}
	idx--
	if idx < 0 || idx >= n {
		return -1
	}
	return idx
}

// =============================================================================
// SEARCH MODE
// =============================================================================

func runSearch(query string) {
	query = strings.TrimSpace(query)
	if query == "" {
		fmt.Fprintln(os.Stderr, "usage: agentchat search <query>")
		os.Exit(1)
	}

	a, err := buildApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer a.close()

	searchHistory(a, query)
}

func searchHistory(a *app, query string) {
	indexPath, err := a.cfg.SearchIndexPath()
	if err != nil {
		fmt.Println(styles.RenderError(err.Error()))
		return
	}

	ix, err := history.OpenSearchIndex(indexPath)
	if err != nil {
		fmt.Println(styles.RenderError(err.Error()))
		return
	}
	defer ix.Close()

	if err := ix.Rebuild(a.hist); err != nil {
		fmt.Println(styles.RenderError(err.Error()))
		return
	}

	results, err := ix.Search(query)
	if err != nil {
		fmt.Println(styles.RenderError(err.Error()))
		return
	}
	if len(results) == 0 {
		fmt.Println("no matches")
		return
	}
	for _, r := range results {
		fmt.Printf("%s\n    %s\n", r.Title, r.Fragment)
	}
}

// =============================================================================
// SYNCHRONOUS SEND HELPERS
// =============================================================================

// sendAndPrint submits one message, waits for the stream to settle, and
// prints the result.
func sendAndPrint(c *session.Controller, updates <-chan struct{}, content string) error {
	if err := c.SendMessage(context.Background(), content); err != nil {
		return err
	}
	waitForTerminal(c, updates)
	printThread(c)
	return nil
}

func sendRetryAndPrint(c *session.Controller, updates <-chan struct{}) error {
	if err := c.Retry(context.Background()); err != nil {
		return err
	}
	waitForTerminal(c, updates)
	printThread(c)
	return nil
}

// subscribe routes controller notifications into a channel. Installed once
// before the first turn: stream goroutines hold the callback for their
// whole life, so it must never be swapped while one may still fire.
func subscribe(c *session.Controller) <-chan struct{} {
	updates := make(chan struct{}, 8)
	c.OnUpdate = func() {
		select {
		case updates <- struct{}{}:
		default:
		}
	}
	return updates
}

// waitForTerminal blocks until the current thread reaches a terminal state.
func waitForTerminal(c *session.Controller, updates <-chan struct{}) {
	deadline := time.After(5 * time.Minute)
	for {
		if s := c.Store().Status(); s.Terminal() {
			return
		}
		select {
		case <-updates:
		case <-time.After(250 * time.Millisecond):
		case <-deadline:
			return
		}
	}
}

// printThread prints the latest turn of the loaded thread.
func printThread(c *session.Controller) {
	cur := c.Store().CurrentThread()
	if cur == nil {
		fmt.Println("no thread loaded")
		return
	}

	for _, msg := range cur.Messages {
		switch msg.Role {
		case thread.RoleUser:
			fmt.Printf("you> %s\n", msg.Content)
		case thread.RoleTool:
			fmt.Printf("tool> %s\n", util.TruncateRunes(msg.Content, 200))
		case thread.RoleAssistant:
			if msg.Content == "" {
				continue
			}
			fmt.Printf("agent> %s\n", msg.Content)
			if score, ok := components.TrustScore(msg.Metadata); ok {
				fmt.Printf("       trust %s\n", util.FormatScorePercent(score))
			}
		}
	}

	if cur.Error != nil && cur.Error.Message != "" {
		fmt.Println(styles.RenderError(cur.Error.Message))
		if cur.Error.CanRetry {
			label := cur.Error.RetryLabel
			if label == "" {
				label = thread.RetryLabelRetry
			}
			fmt.Printf("       use :retry to %s\n", strings.ToLower(label))
		}
	}
}
