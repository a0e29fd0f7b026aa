package game

import "testing"

func TestAppendLogStampsEntry(t *testing.T) {
	in := fixedInstance(t)
	in.DayNumber = 2
	in.Phase = PhaseDayDiscussion

	entry := in.AppendLog(LogEntry{Kind: LogKindSpeech, Content: "hello", Seat: 7})
	if entry.ID == "" {
		t.Fatal("entry must receive an id")
	}
	if entry.Day != 2 || entry.Phase != "DAY_DISCUSSION" {
		t.Fatalf("entry not stamped with day/phase: %+v", entry)
	}
	if !entry.IsPublic || entry.Channel != ChannelPublic {
		t.Fatal("default channel should be public")
	}
	if len(in.Logs) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(in.Logs))
	}
}

func TestVisibleLogsChannels(t *testing.T) {
	in := fixedInstance(t)
	in.AppendLog(LogEntry{Kind: LogKindAnnouncement, Content: "day breaks"})
	in.AppendLog(LogEntry{Kind: LogKindSkill, Content: "wolf talk", Channel: ChannelWerewolf, Seat: 1})
	in.AppendLog(LogEntry{Kind: LogKindSkill, Content: "your check", Channel: ChannelPrivate, Seat: 4})

	wolf := in.SeatAt(2)
	if got := len(in.VisibleLogs(wolf)); got != 2 {
		t.Fatalf("wolf should see 2 entries, got %d", got)
	}

	seer := in.SeatAt(4)
	if got := len(in.VisibleLogs(seer)); got != 2 {
		t.Fatalf("seer should see own private entry, got %d", got)
	}

	villager := in.SeatAt(7)
	if got := len(in.VisibleLogs(villager)); got != 1 {
		t.Fatalf("villager should see only public entries, got %d", got)
	}
}

func TestPromoteWerewolfLogs(t *testing.T) {
	in := fixedInstance(t)
	in.AppendLog(LogEntry{Kind: LogKindSkill, Content: "wolf talk", Channel: ChannelWerewolf})
	in.AppendLog(LogEntry{Kind: LogKindSkill, Content: "private", Channel: ChannelPrivate, Seat: 4})

	if promoted := in.PromoteWerewolfLogs(); promoted != 1 {
		t.Fatalf("expected 1 promoted entry, got %d", promoted)
	}
	if got := len(in.PublicLogs()); got != 1 {
		t.Fatalf("expected 1 public entry after promotion, got %d", got)
	}
	// Private seer entries stay private.
	if in.Logs[1].IsPublic {
		t.Fatal("private channel must not be promoted")
	}
}
