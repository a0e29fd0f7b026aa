package game

import (
	"time"

	"github.com/google/uuid"
)

// LogKind classifies a game log entry.
type LogKind string

const (
	LogKindSpeech       LogKind = "speech"
	LogKindAnnouncement LogKind = "announcement"
	LogKindDeath        LogKind = "death"
	LogKindVote         LogKind = "vote"
	LogKindSkill        LogKind = "skill"
	LogKindSystem       LogKind = "system"
)

// Log channels. Entries on ChannelWerewolf are visible only to the
// werewolf team until the game ends.
const (
	ChannelPublic   = "public"
	ChannelWerewolf = "werewolf"
	ChannelPrivate  = "private"
)

// LogEntry is one append-only record of an externally visible event.
// Entries are never mutated after creation, except for the one-time
// promotion of werewolf-channel entries at game end.
type LogEntry struct {
	ID         string            `json:"id"`
	Kind       LogKind           `json:"kind"`
	Content    string            `json:"content"`
	Day        int               `json:"day"`
	Phase      string            `json:"phase"`
	Timestamp  time.Time         `json:"timestamp"`
	Seat       int               `json:"seat,omitempty"`
	PlayerName string            `json:"playerName,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	IsPublic   bool              `json:"isPublic"`
	Channel    string            `json:"channel"`
}

// AppendLog stamps and appends a log entry, returning it.
func (in *Instance) AppendLog(entry LogEntry) *LogEntry {
	entry.ID = uuid.New().String()
	entry.Day = in.DayNumber
	entry.Phase = in.Phase.String()
	entry.Timestamp = time.Now()
	if entry.Channel == "" {
		entry.Channel = ChannelPublic
	}
	entry.IsPublic = entry.Channel == ChannelPublic
	stamped := entry
	in.Logs = append(in.Logs, &stamped)
	return &stamped
}

// PublicLogs returns the entries visible to everyone.
func (in *Instance) PublicLogs() []*LogEntry {
	entries := make([]*LogEntry, 0, len(in.Logs))
	for _, e := range in.Logs {
		if e.IsPublic {
			entries = append(entries, e)
		}
	}
	return entries
}

// VisibleLogs returns the entries a given seat may see: public
// entries, the seat's own private entries, and the werewolf channel
// for werewolf seats.
func (in *Instance) VisibleLogs(seat *Seat) []*LogEntry {
	entries := make([]*LogEntry, 0, len(in.Logs))
	for _, e := range in.Logs {
		switch {
		case e.IsPublic:
			entries = append(entries, e)
		case e.Channel == ChannelWerewolf && seat != nil && seat.Role.Team() == TeamWerewolf:
			entries = append(entries, e)
		case e.Channel == ChannelPrivate && seat != nil && e.Seat == seat.Number:
			entries = append(entries, e)
		}
	}
	return entries
}

// PromoteWerewolfLogs makes the werewolf channel public. Called once
// when the game ends so the night deliberations become part of the
// visible record.
func (in *Instance) PromoteWerewolfLogs() int {
	promoted := 0
	for _, e := range in.Logs {
		if e.Channel == ChannelWerewolf && !e.IsPublic {
			e.IsPublic = true
			promoted++
		}
	}
	return promoted
}
