package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"outreach_backend/platform/ai/textgen"
)

const draftTimeout = 30 * time.Second

// DraftInstruction is the system instruction of the drafting agent.
const DraftInstruction = `You write short, personal B2B outreach emails.
You receive a contact profile and a template email. Rewrite the template for
this contact: keep its intent and any concrete offer, match the contact's
buying persona, stay under 150 words, plain text only, no placeholders.
Respond with a single JSON object and nothing else:
{"subject": string, "body": string}`

type draftOutput struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

var personaAngles = map[string]string{
	"economic_buyer":  "lead with business outcomes, cost and risk",
	"technical_buyer": "lead with architecture, integration and reliability",
	"champion":        "give them material they can take to their team",
	"influencer":      "share a relevant insight and invite an opinion",
	"end_user":        "focus on day to day time savings",
}

func draftPrompt(data TemplateData, subject, body, instructions string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Contact: %s\n", data.FullName)
	if data.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", data.Title)
	}
	if data.Company != "" {
		fmt.Fprintf(&b, "Company: %s\n", data.Company)
	}
	if data.Industry != "" {
		fmt.Fprintf(&b, "Industry: %s\n", data.Industry)
	}
	if data.Positioning != "" {
		fmt.Fprintf(&b, "Company positioning: %s\n", data.Positioning)
	}
	if angle, ok := personaAngles[data.Persona]; ok {
		fmt.Fprintf(&b, "Persona: %s (%s)\n", data.Persona, angle)
	}
	if instructions = strings.TrimSpace(instructions); instructions != "" {
		fmt.Fprintf(&b, "Extra instructions: %s\n", instructions)
	}
	fmt.Fprintf(&b, "\nTemplate subject: %s\nTemplate body:\n%s\n", subject, body)
	return b.String()
}

// personalize asks the model for a rewrite. Any failure is returned to the
// caller, which keeps the rendered template instead.
func personalize(ctx context.Context, gen textgen.Generator, prompt string) (draftOutput, error) {
	callCtx, cancel := context.WithTimeout(ctx, draftTimeout)
	defer cancel()

	raw, err := gen.Generate(callCtx, "outreach", prompt)
	if err != nil {
		return draftOutput{}, err
	}
	jsonText, ok := textgen.ExtractJSONObject(raw)
	if !ok {
		return draftOutput{}, fmt.Errorf("model returned no JSON object")
	}
	var out draftOutput
	if err := json.Unmarshal([]byte(jsonText), &out); err != nil {
		return draftOutput{}, fmt.Errorf("decode model output: %w", err)
	}
	out.Subject = strings.TrimSpace(out.Subject)
	out.Body = strings.TrimSpace(out.Body)
	if out.Subject == "" || out.Body == "" {
		return draftOutput{}, fmt.Errorf("model returned an empty subject or body")
	}
	if len([]rune(out.Subject)) > 200 {
		out.Subject = string([]rune(out.Subject)[:200])
	}
	return out, nil
}
