package ai

import "context"

// ScriptedProvider makes deterministic choices without any external
// call. It backs fully automated lobbies when no model is configured
// and serves as the fallback policy when a real provider fails.
type ScriptedProvider struct{}

// NewScriptedProvider returns the deterministic provider.
func NewScriptedProvider() *ScriptedProvider {
	return &ScriptedProvider{}
}

// DecideNightAction targets the lowest-numbered legal seat. The witch
// saves on the first night and otherwise holds both potions.
func (p *ScriptedProvider) DecideNightAction(_ context.Context, view View, targets []int) (NightAction, error) {
	if view.Self.Role == "witch" {
		if view.Day == 0 && view.KillTarget != 0 && view.HasAntidote {
			return NightAction{Save: true, Reason: "first-night save"}, nil
		}
		return NightAction{}, nil
	}
	if len(targets) == 0 {
		return NightAction{}, nil
	}
	return NightAction{Target: lowest(targets), Reason: "scripted"}, nil
}

// GenerateSpeech returns a single canned line, emitted as one chunk.
func (p *ScriptedProvider) GenerateSpeech(_ context.Context, view View, onChunk SpeechChunk) (string, error) {
	text := "I have nothing unusual to report today."
	if view.Phase == "LAST_WORDS" {
		text = "My time is up. Good luck, everyone."
	}
	if onChunk != nil {
		onChunk(text)
	}
	return text, nil
}

// DecideVote votes for the lowest-numbered candidate.
func (p *ScriptedProvider) DecideVote(_ context.Context, _ View, candidates []int) (int, error) {
	if len(candidates) == 0 {
		return 0, nil
	}
	return lowest(candidates), nil
}

// DecideShoot shoots the lowest-numbered target.
func (p *ScriptedProvider) DecideShoot(_ context.Context, _ View, _ string, targets []int) (int, error) {
	if len(targets) == 0 {
		return 0, nil
	}
	return lowest(targets), nil
}

func lowest(seats []int) int {
	min := seats[0]
	for _, s := range seats[1:] {
		if s < min {
			min = s
		}
	}
	return min
}
