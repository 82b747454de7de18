package dialog

import (
	"os"
	"sync"
	"testing"
)

func TestJournal_S5_ConcurrentAppendAndTailTruncation(t *testing.T) {
	dir := t.TempDir()
	j := NewJournal(dir)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := j.AppendEvent(1, JournalRecord{Type: JKindAgentWordsRecord, GenSeq: i}); err != nil {
				t.Errorf("AppendEvent(%d): %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	// Append an unterminated fragment directly, simulating a crash mid-write.
	f, err := os.OpenFile(j.roundPath(1), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open for fragment append: %v", err)
	}
	if _, err := f.WriteString(`{"type":"agent_wor`); err != nil {
		t.Fatalf("write fragment: %v", err)
	}
	f.Close()

	records, err := j.ReadRoundEvents(1)
	if err != nil {
		t.Fatalf("ReadRoundEvents: %v", err)
	}
	if len(records) != n {
		t.Fatalf("got %d records, want %d", len(records), n)
	}
}

func TestJournal_TailTruncationTolerance(t *testing.T) {
	dir := t.TempDir()
	j := NewJournal(dir)

	if err := j.AppendEvent(1, JournalRecord{Type: JKindUserPrompt, GenSeq: 1}); err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}
	if err := j.AppendEvent(1, JournalRecord{Type: JKindRoundAdvance, GenSeq: 2}); err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}

	before, err := j.ReadRoundEvents(1)
	if err != nil {
		t.Fatalf("ReadRoundEvents: %v", err)
	}

	f, err := os.OpenFile(j.roundPath(1), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	f.WriteString(`{"type":"incomplete`)
	f.Close()

	after, err := j.ReadRoundEvents(1)
	if err != nil {
		t.Fatalf("ReadRoundEvents after truncated append: %v", err)
	}
	if len(after) != len(before) {
		t.Fatalf("got %d records after truncated append, want unchanged %d", len(after), len(before))
	}
}

func TestJournal_CorruptionEarlierInFileIsFatal(t *testing.T) {
	dir := t.TempDir()
	j := NewJournal(dir)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(j.roundPath(1), []byte("not json at all\n{\"type\":\"user_prompt\",\"genseq\":1}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := j.ReadRoundEvents(1); err == nil {
		t.Error("expected a hard error for corruption earlier in the file")
	}
}

func TestJournal_ReadMissingRoundReturnsEmpty(t *testing.T) {
	j := NewJournal(t.TempDir())
	records, err := j.ReadRoundEvents(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if records != nil {
		t.Errorf("expected nil records for a round never written, got %v", records)
	}
}
