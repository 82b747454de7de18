package driver

import "testing"

func TestClassify(t *testing.T) {
	registered := map[string]bool{"search": true}
	isTool := func(name string) bool { return registered[name] }

	cases := []struct {
		name, headLine string
		want           CallKind
		agentID        string
		topicID        string
	}{
		{"human", "!?@human what should I do?", CallQ4H, "", ""},
		{"self", "!?@self did I miss anything?", CallFBR, "", ""},
		{"tool", "!?@search query text", CallTool, "search", ""},
		{"type-b", "!?@cmdr !review please look", CallTypeB, "cmdr", "review"},
		{"type-c", "!?@researcher dig into this", CallTypeC, "researcher", ""},
		{"unknown-no-mention", "!?not a call at all", CallUnknown, "", ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Classify(c.headLine, isTool)
			if got.Kind != c.want {
				t.Fatalf("Classify(%q) kind = %v, want %v", c.headLine, got.Kind, c.want)
			}
			if got.AgentID != c.agentID {
				t.Errorf("AgentID = %q, want %q", got.AgentID, c.agentID)
			}
			if got.TopicID != c.topicID {
				t.Errorf("TopicID = %q, want %q", got.TopicID, c.topicID)
			}
		})
	}
}
