package dialog

import "testing"

type testOwner string

func (o testOwner) Name() string { return string(o) }

func TestReminderStore_SaveLoadRoundTrip(t *testing.T) {
	owners := NewOwnerRegistry()
	owners.Register("todo-tool", testOwner("todo-tool"))
	store := NewReminderStore(owners)

	dir := t.TempDir()
	want := []Reminder{
		{Content: "finish the review", OwnerName: "todo-tool", Meta: map[string]any{"priority": "high"}},
		{Content: "ping the user", OwnerName: "unregistered-tool"},
	}
	if err := store.Save(dir, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d reminders, want 2", len(got))
	}
	if got[0].Owner == nil || got[0].Owner.Name() != "todo-tool" {
		t.Errorf("expected reminder 0 rebound to todo-tool owner, got %+v", got[0].Owner)
	}
	if got[1].Owner != nil {
		t.Errorf("expected reminder 1 (unknown owner) to load with nil Owner, got %v", got[1].Owner)
	}
	if got[1].Content != "ping the user" {
		t.Errorf("expected unknown-owner reminder content preserved, got %q", got[1].Content)
	}
}

func TestReminderStore_LoadMissingFileReturnsEmpty(t *testing.T) {
	store := NewReminderStore(NewOwnerRegistry())
	got, err := store.Load(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil reminders for missing file, got %v", got)
	}
}
