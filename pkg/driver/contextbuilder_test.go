package driver

import (
	"strings"
	"testing"

	"github.com/dominds-project/dominds/pkg/llms"
	"github.com/dominds-project/dominds/pkg/utils"
)

func TestContextBuilder_KeepsWholeRoundsOldestFirstUnderBudget(t *testing.T) {
	counter, err := utils.NewTokenCounter("gpt-4")
	if err != nil {
		t.Fatalf("NewTokenCounter: %v", err)
	}

	rounds := []RoundMessages{
		{Round: 1, Messages: []llms.Message{{Role: "user", Content: strings.Repeat("padding word ", 2000)}}},
		{Round: 2, Messages: []llms.Message{{Role: "user", Content: "second round"}}},
		{Round: 3, Messages: []llms.Message{{Role: "user", Content: "third round"}}},
	}

	builder := NewContextBuilder(counter, 200)
	out := builder.Assemble(nil, nil, rounds)

	var gotContents []string
	for _, m := range out {
		gotContents = append(gotContents, m.Content)
	}

	if len(gotContents) == 0 {
		t.Fatal("expected the newer rounds to fit")
	}
	if gotContents[0] != "second round" {
		t.Errorf("oldest surviving round should be first in output, got %v", gotContents)
	}
	for _, c := range gotContents {
		if strings.Contains(c, "padding word") {
			t.Errorf("oversized oldest round 1 should have been dropped: %v", gotContents)
		}
	}
}

func TestContextBuilder_NeverSplitsWithinARound(t *testing.T) {
	counter, err := utils.NewTokenCounter("gpt-4")
	if err != nil {
		t.Fatalf("NewTokenCounter: %v", err)
	}

	round := RoundMessages{Round: 1, Messages: []llms.Message{
		{Role: "user", Content: "ask"},
		{Role: "assistant", Content: "answer"},
	}}
	builder := NewContextBuilder(counter, 1) // budget too small for anything
	out := builder.Assemble(nil, nil, []RoundMessages{round})

	if len(out) != 0 {
		t.Errorf("expected the whole round dropped when it can't fully fit, got %d messages", len(out))
	}
}

func TestContextBuilder_FoldsSummariesAsUserMessages(t *testing.T) {
	counter, err := utils.NewTokenCounter("gpt-4")
	if err != nil {
		t.Fatalf("NewTokenCounter: %v", err)
	}
	builder := NewContextBuilder(counter, 1000)
	out := builder.Assemble(
		[]llms.Message{{Role: "system", Content: "task doc"}},
		[]string{"researcher finished the review"},
		nil,
	)
	if len(out) != 2 {
		t.Fatalf("got %d messages, want 2 (preamble + summary)", len(out))
	}
	if out[1].Role != "user" || !strings.Contains(out[1].Content, "researcher finished the review") {
		t.Errorf("summary message malformed: %+v", out[1])
	}
}
