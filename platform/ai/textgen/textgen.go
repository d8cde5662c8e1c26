// Package textgen runs a single instruction-driven ADK agent turn and
// returns the model's text. Each call gets its own throwaway session.
package textgen

import (
	"context"
	"fmt"
	"strings"

	"outreach_backend/platform/logger"

	"github.com/google/uuid"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"
)

// Generator is what domain services depend on.
type Generator interface {
	Generate(ctx context.Context, userID, prompt string) (string, error)
}

// Config describes one agent.
type Config struct {
	AppName     string
	AgentName   string
	Description string
	Instruction string
	Model       model.LLM
}

// Agent is a Generator backed by an llmagent and an in-memory session store.
type Agent struct {
	appName        string
	runner         *runner.Runner
	sessionService session.Service
	log            *logger.Logger
}

// New builds the llmagent and its runner.
func New(cfg Config, log *logger.Logger) (*Agent, error) {
	if cfg.Model == nil {
		return nil, fmt.Errorf("textgen: model is required")
	}
	if log == nil {
		log = logger.Nop()
	}

	adkAgent, err := llmagent.New(llmagent.Config{
		Name:        cfg.AgentName,
		Model:       cfg.Model,
		Description: cfg.Description,
		Instruction: cfg.Instruction,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s agent: %w", cfg.AgentName, err)
	}

	sessionService := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        cfg.AppName,
		Agent:          adkAgent,
		SessionService: sessionService,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s runner: %w", cfg.AgentName, err)
	}

	return &Agent{
		appName:        cfg.AppName,
		runner:         r,
		sessionService: sessionService,
		log:            log,
	}, nil
}

// Generate sends prompt as a user turn and concatenates every text part the agent emits.
func (a *Agent) Generate(ctx context.Context, userID, prompt string) (string, error) {
	sessionID := uuid.NewString()
	if _, err := a.sessionService.Create(ctx, &session.CreateRequest{
		AppName:   a.appName,
		UserID:    userID,
		SessionID: sessionID,
	}); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	defer a.cleanupSession(ctx, userID, sessionID)

	content := &genai.Content{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{genai.NewPartFromText(prompt)},
	}
	runConfig := agent.RunConfig{StreamingMode: agent.StreamingModeNone}

	var out strings.Builder
	for event, err := range a.runner.Run(ctx, userID, sessionID, content, runConfig) {
		if err != nil {
			return "", fmt.Errorf("%s run failed: %w", a.appName, err)
		}
		if event == nil || event.Content == nil {
			continue
		}
		for _, part := range event.Content.Parts {
			if part != nil {
				out.WriteString(part.Text)
			}
		}
	}
	return strings.TrimSpace(out.String()), nil
}

func (a *Agent) cleanupSession(ctx context.Context, userID, sessionID string) {
	if err := a.sessionService.Delete(context.WithoutCancel(ctx), &session.DeleteRequest{
		AppName:   a.appName,
		UserID:    userID,
		SessionID: sessionID,
	}); err != nil {
		a.log.Warn("failed to delete agent session", "app", a.appName, "error", err)
	}
}

// ExtractJSONObject returns the outermost {...} in s. Models sometimes wrap
// JSON in prose or code fences even in JSON mode.
func ExtractJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}
