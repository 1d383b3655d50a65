// Command notecore wires one meeting session end-to-end against a
// scripted LLM provider and prints the resulting structured output and
// audit trail. It exists to exercise the full live-pass + finalization
// pipeline without a real transport or a real model backend, both of
// which are out of scope (spec §1).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/meetingcore/notecore/pkg/chunkmodel"
	"github.com/meetingcore/notecore/pkg/config"
	"github.com/meetingcore/notecore/pkg/events"
	"github.com/meetingcore/notecore/pkg/finalize"
	"github.com/meetingcore/notecore/pkg/llmclient/llmtest"
	"github.com/meetingcore/notecore/pkg/relevance"
	"github.com/meetingcore/notecore/pkg/session"
	"github.com/meetingcore/notecore/pkg/store"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir", getEnv("CONFIG_DIR", "./deploy/config"), "Path to configuration directory")
	configFile := flag.String("config-file", getEnv("CONFIG_FILE", ""), "Optional YAML config file overriding defaults")
	meetingID := flag.String("meeting-id", getEnv("MEETING_ID", "demo-meeting"), "Meeting identifier for this run")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("Warning: could not load %s: %v", envPath, err)
		log.Printf("Continuing with existing environment variables...")
	} else {
		log.Printf("Loaded environment from %s", envPath)
	}

	cfg, err := config.Initialize(envPath, *configFile)
	if err != nil {
		log.Fatalf("Failed to initialize configuration: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil)).With("meeting_id", *meetingID)
	slog.SetDefault(logger)

	llm := demoScriptedClient()
	repos := store.NewMemoryRepos()
	bus := events.NewBus()

	eventCh, unsubscribe := bus.Subscribe(*meetingID, 64)
	defer unsubscribe()
	go func() {
		for evt := range eventCh {
			logger.Info("event", "type", evt.Type, "payload", fmt.Sprintf("%+v", evt.Payload))
		}
	}()

	classifier := relevance.New(llm)
	finalizer := finalize.New(classifier, repos, bus, cfg)
	ctrl := session.New(*meetingID, cfg, llm, repos, bus, finalizer)

	ctx := context.Background()
	if err := ctrl.StartSession(ctx); err != nil {
		log.Fatalf("Failed to start session: %v", err)
	}

	for _, seg := range demoSegments() {
		if err := ctrl.AddSegment(ctx, seg); err != nil {
			logger.Error("add segment failed", "segment_id", seg.ID, "error", err)
		}
	}

	if err := ctrl.StopSession(ctx); err != nil {
		log.Fatalf("Finalization failed: %v", err)
	}
	if err := ctrl.Shutdown(); err != nil {
		logger.Warn("ticker shutdown reported an error", "error", err)
	}

	// Give the subscriber goroutine a moment to drain the terminal events
	// before printing the summary.
	time.Sleep(50 * time.Millisecond)

	result, ok := finalizer.Result(*meetingID)
	if !ok {
		log.Fatalf("No finalization result recorded for meeting %s", *meetingID)
	}

	fmt.Println()
	fmt.Printf("Subject: %s (%s)\n", result.Output.Subject.Title, result.Output.Subject.Goal)
	fmt.Printf("Key points:   %d\n", len(result.Output.KeyPoints))
	fmt.Printf("Decisions:    %d\n", len(result.Output.Decisions))
	fmt.Printf("Action items: %d\n", len(result.Output.ActionItems))
	fmt.Printf("Tasks:        %d\n", len(result.Output.Tasks))
	fmt.Printf("Other notes:  %d\n", len(result.Output.OtherNotes))
	fmt.Printf("Candidates included/filtered: %d/%d\n", len(result.Audit.IncludedCandidates), len(result.Audit.FilteredCandidates))
	fmt.Printf("Chunks rescored/failed: %d/%d\n", result.Audit.Totals.ChunksRescored, result.Audit.Totals.ChunksRescoreFailed)
}

func demoSegments() []chunkmodel.Segment {
	return []chunkmodel.Segment{
		{ID: "seg-1", Speaker: "alice", StartMs: 0, EndMs: 4000, Content: "Let's go over the Q3 budget before we wrap up the quarter."},
		{ID: "seg-2", Speaker: "bob", StartMs: 4200, EndMs: 9000, Content: "Sure. Marketing spend came in under forecast, engineering is over by about 8 percent."},
		{ID: "seg-3", Speaker: "alice", StartMs: 9200, EndMs: 13000, Content: "Okay, let's cap engineering hiring for Q4. Bob, can you send the revised numbers by Friday?"},
		{ID: "seg-4", Speaker: "bob", StartMs: 13200, EndMs: 15000, Content: "Will do."},
	}
}

// demoScriptedClient scripts enough LLM responses for the one chunk that
// StopSession flushes (subject detect, relevance classify, candidate
// extract) plus the finalization re-check of that same chunk.
func demoScriptedClient() *llmtest.ScriptedClient {
	llm := llmtest.NewScriptedClient()
	llm.EnqueueText(`{"title": "Q3 budget review", "goal": "close out Q3 budget and plan Q4 hiring", "keywords": ["budget", "engineering", "marketing", "hiring", "forecast"]}`)
	llm.EnqueueText(`{"relevanceType": "in_scope_important", "score": 0.92, "reasoning": "directly covers the budget review"}`)
	llm.EnqueueText(`{"keyPoints": [{"content": "Marketing spend came in under forecast"}, {"content": "Engineering spend is over forecast by about 8 percent"}], "decisions": [{"content": "Cap engineering hiring for Q4"}], "actionItems": [{"content": "Send revised engineering budget numbers", "assignee": "Bob", "deadline": "Friday", "priority": "high"}]}`)
	llm.EnqueueText(`{"relevanceType": "in_scope_important", "score": 0.92, "reasoning": "directly covers the budget review"}`)
	return llm
}
