package tellask

import (
	"fmt"
	"strings"
	"testing"
)

func canonical(events []Event) string {
	var b strings.Builder
	for _, e := range events {
		switch e.Kind {
		case CallStart:
			fmt.Fprintf(&b, "callStart(%s,%s,%s)\n", e.Validation.Status, e.Validation.Reason, e.Validation.FirstMention)
		case MarkdownChunk, CallHeadLineChunk, CallBodyChunk:
			fmt.Fprintf(&b, "%s(%q)\n", e.Kind, e.Text)
		case CallFinish:
			b.WriteString("callFinish\n")
		default:
			fmt.Fprintf(&b, "%s\n", e.Kind)
		}
	}
	return b.String()
}

func feedAll(t *testing.T, input string, chunkSize int) []Event {
	t.Helper()
	p := New()
	var out []Event
	for i := 0; i < len(input); i += chunkSize {
		end := i + chunkSize
		if end > len(input) {
			end = len(input)
		}
		out = append(out, p.Feed(input[i:end])...)
	}
	out = append(out, p.Close()...)
	return out
}

func TestParser_S1_Basic(t *testing.T) {
	input := "before\n!?@pangu do\n!?body 1\n!?body 2\nafter\n"
	events := feedAll(t, input, len(input))

	want := []EventKind{
		MarkdownStart, MarkdownChunk, MarkdownFinish,
		CallStart, CallHeadLineChunk, CallHeadLineFinish,
		CallBodyStart, CallBodyChunk, CallBodyChunk, CallBodyFinish,
		CallFinish,
		MarkdownStart, MarkdownChunk, MarkdownFinish,
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d:\n%s", len(events), len(want), canonical(events))
	}
	for i, k := range want {
		if events[i].Kind != k {
			t.Errorf("event %d: got %s, want %s", i, events[i].Kind, k)
		}
	}

	if events[0+1].Text != "before\n" {
		t.Errorf("markdownChunk = %q, want %q", events[1].Text, "before\n")
	}
	if events[3].Validation.Status != Valid || events[3].Validation.FirstMention != "pangu" {
		t.Errorf("callStart validation = %+v", events[3].Validation)
	}
	if events[4].Text != "@pangu do\n" {
		t.Errorf("callHeadLineChunk = %q", events[4].Text)
	}
}

func TestParser_S2_MalformedHead(t *testing.T) {
	input := "!?hello\n!?body\n"
	events := feedAll(t, input, len(input))

	want := []EventKind{
		CallStart, CallHeadLineChunk, CallHeadLineFinish,
		CallBodyStart, CallBodyChunk, CallBodyFinish,
		CallFinish,
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d:\n%s", len(events), len(want), canonical(events))
	}
	if events[0].Validation.Status != Malformed || events[0].Validation.Reason != ReasonMissingMentionPrefix {
		t.Errorf("validation = %+v", events[0].Validation)
	}
}

func TestParser_InvalidMentionID(t *testing.T) {
	p := New()
	events := p.Feed("!?@9bad text\n")
	events = append(events, p.Close()...)
	if events[0].Validation.Status != Malformed || events[0].Validation.Reason != ReasonInvalidMentionID {
		t.Errorf("validation = %+v", events[0].Validation)
	}
}

func TestParser_ChunkInvariance(t *testing.T) {
	input := "before\n!?@pangu do more\n!?line two\n!?@still-body\nafter one\nafter two\n"

	baseline := canonical(feedAll(t, input, len(input)))
	for _, size := range []int{1, 2, 3, 5, 7, 11} {
		got := canonical(feedAll(t, input, size))
		if got != baseline {
			t.Errorf("chunk size %d produced a different event sequence:\n--- got ---\n%s--- want ---\n%s", size, got, baseline)
		}
	}
}

func TestParser_ConcatenationPreservesContent(t *testing.T) {
	input := "line one\nline two\n!?@agent head continuation\n!?@still head\n!?body text\nmore body\ntrailer\n"

	for _, size := range []int{1, 4, 9, 100} {
		p := New()
		var out []Event
		for i := 0; i < len(input); i += size {
			end := i + size
			if end > len(input) {
				end = len(input)
			}
			out = append(out, p.Feed(input[i:end])...)
		}
		out = append(out, p.Close()...)

		var markdown, head, body strings.Builder
		for _, e := range out {
			switch e.Kind {
			case MarkdownChunk:
				markdown.WriteString(e.Text)
			case CallHeadLineChunk:
				head.WriteString(e.Text)
			case CallBodyChunk:
				body.WriteString(e.Text)
			case MarkdownStart, MarkdownFinish, CallStart, CallHeadLineFinish, CallBodyStart, CallBodyFinish, CallFinish:
			}
			if e.Kind == MarkdownChunk || e.Kind == CallHeadLineChunk || e.Kind == CallBodyChunk {
				if e.Text == "" {
					t.Errorf("chunk size %d: empty chunk emitted for kind %s", size, e.Kind)
				}
			}
		}

		wantMarkdown := "line one\nline two\nmore body\ntrailer\n"
		wantHead := "@agent head continuation\n@still head\n"
		wantBody := "body text\n"
		if markdown.String() != wantMarkdown {
			t.Errorf("chunk size %d: markdown = %q, want %q", size, markdown.String(), wantMarkdown)
		}
		if head.String() != wantHead {
			t.Errorf("chunk size %d: head = %q, want %q", size, head.String(), wantHead)
		}
		if body.String() != wantBody {
			t.Errorf("chunk size %d: body = %q, want %q", size, body.String(), wantBody)
		}
	}
}
