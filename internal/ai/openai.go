package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// ModelConfig configures the chat-completions endpoint and HTTP
// behavior for the model-backed provider.
type ModelConfig struct {
	CompletionsURL string
	Model          string
	APIKey         string
	HTTPClient     *http.Client
}

// ModelProvider drives decisions and narration through an
// OpenAI-compatible chat-completions endpoint. Every method returns an
// error rather than guessing when the model's reply cannot be parsed;
// the orchestrator falls back deterministically.
type ModelProvider struct {
	cfg    ModelConfig
	logger *zap.Logger
}

// NewModelProvider builds a model-backed provider.
func NewModelProvider(cfg ModelConfig, logger *zap.Logger) *ModelProvider {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if strings.TrimSpace(cfg.CompletionsURL) == "" {
		cfg.CompletionsURL = "https://api.openai.com/v1/chat/completions"
	}
	return &ModelProvider{cfg: cfg, logger: logger}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *ModelProvider) complete(ctx context.Context, system, user string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: p.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.CompletionsURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	}

	resp, err := p.cfg.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completions call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completions status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("completions error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completions returned no choices")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

func viewJSON(view View) string {
	b, err := json.Marshal(view)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// DecideNightAction asks the model for the seat's night action.
func (p *ModelProvider) DecideNightAction(ctx context.Context, view View, targets []int) (NightAction, error) {
	system := "You play the role of " + view.Self.Role + " in a ten-player werewolf game. Answer with one decision only."
	var user string
	switch view.Self.Role {
	case "witch":
		user = fmt.Sprintf(
			"Game state: %s\nTonight's kill target is seat %d. You have antidote=%v poison=%v. Reply exactly one of: SAVE, POISON <seat>, PASS.",
			viewJSON(view), view.KillTarget, view.HasAntidote, view.HasPoison)
	default:
		user = fmt.Sprintf(
			"Game state: %s\nChoose a target seat from %v. Reply with the seat number only.",
			viewJSON(view), targets)
	}

	reply, err := p.complete(ctx, system, user)
	if err != nil {
		return NightAction{}, err
	}

	if view.Self.Role == "witch" {
		return parseWitchReply(reply)
	}
	target, err := parseSeatReply(reply, targets)
	if err != nil {
		return NightAction{}, err
	}
	return NightAction{Target: target, Reason: reply}, nil
}

// GenerateSpeech asks the model for a short in-character speech.
func (p *ModelProvider) GenerateSpeech(ctx context.Context, view View, onChunk SpeechChunk) (string, error) {
	system := "You play seat " + strconv.Itoa(view.Self.Number) + " in a ten-player werewolf game. Speak in character, at most three sentences."
	user := fmt.Sprintf("Game state: %s\nIt is your turn to speak during %s.", viewJSON(view), view.Phase)

	text, err := p.complete(ctx, system, user)
	if err != nil {
		return "", err
	}
	if onChunk != nil {
		onChunk(text)
	}
	return text, nil
}

// DecideVote asks the model whom to vote out.
func (p *ModelProvider) DecideVote(ctx context.Context, view View, candidates []int) (int, error) {
	system := "You play in a ten-player werewolf game. Answer with a seat number only."
	user := fmt.Sprintf("Game state: %s\nVote to eliminate one seat from %v. Reply with the seat number only, or 0 to abstain.",
		viewJSON(view), candidates)

	reply, err := p.complete(ctx, system, user)
	if err != nil {
		return 0, err
	}
	if strings.TrimSpace(reply) == "0" {
		return 0, nil
	}
	return parseSeatReply(reply, candidates)
}

// DecideShoot asks the dying hunter's model for a revenge target.
func (p *ModelProvider) DecideShoot(ctx context.Context, view View, deathReason string, targets []int) (int, error) {
	system := "You are the hunter in a ten-player werewolf game, dying and allowed one final shot."
	user := fmt.Sprintf("Game state: %s\nYou died (%s). Shoot one seat from %v or reply 0 to hold fire. Reply with the number only.",
		viewJSON(view), deathReason, targets)

	reply, err := p.complete(ctx, system, user)
	if err != nil {
		return 0, err
	}
	if strings.TrimSpace(reply) == "0" {
		return 0, nil
	}
	return parseSeatReply(reply, targets)
}

// Announce asks the model for a narrator line.
func (p *ModelProvider) Announce(ctx context.Context, kind AnnounceKind, info AnnounceContext) (string, error) {
	system := "You are the narrator of a werewolf game. Reply with one or two atmospheric sentences."
	user := fmt.Sprintf("Moment: %s. Day %d. Subject: %s. Winner: %s.", kind, info.Day, info.TargetName, info.Winner)
	return p.complete(ctx, system, user)
}

// parseSeatReply extracts the first integer in the reply and validates
// it against the legal targets.
func parseSeatReply(reply string, targets []int) (int, error) {
	fields := strings.FieldsFunc(reply, func(r rune) bool {
		return r < '0' || r > '9'
	})
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			continue
		}
		for _, t := range targets {
			if n == t {
				return n, nil
			}
		}
	}
	return 0, fmt.Errorf("no legal seat in reply %q", reply)
}

func parseWitchReply(reply string) (NightAction, error) {
	normalized := strings.ToUpper(strings.TrimSpace(reply))
	switch {
	case strings.HasPrefix(normalized, "SAVE"):
		return NightAction{Save: true, Reason: reply}, nil
	case strings.HasPrefix(normalized, "POISON"):
		fields := strings.Fields(normalized)
		if len(fields) < 2 {
			return NightAction{}, fmt.Errorf("poison reply missing target: %q", reply)
		}
		target, err := strconv.Atoi(fields[1])
		if err != nil {
			return NightAction{}, fmt.Errorf("poison target not a seat: %q", reply)
		}
		return NightAction{PoisonTarget: target, Reason: reply}, nil
	case strings.HasPrefix(normalized, "PASS"):
		return NightAction{Reason: reply}, nil
	default:
		return NightAction{}, fmt.Errorf("unrecognized witch reply %q", reply)
	}
}
