package utils

import "testing"

func TestUIDGenerator_Deterministic(t *testing.T) {
	a := NewUIDGenerator()
	b := NewUIDGenerator()
	seeds := []string{"Chat Input", "OpenAI Model", "Chat Input", "", "ノード"}
	for _, seed := range seeds {
		if got, want := a.Generate(seed), b.Generate(seed); got != want {
			t.Fatalf("seed %q: %q vs %q", seed, got, want)
		}
	}
}

func TestUIDGenerator_CollisionSuffix(t *testing.T) {
	g := NewUIDGenerator()
	first := g.Generate("Prompt Template")
	second := g.Generate("Prompt Template")
	third := g.Generate("Prompt Template")
	if first == second || second == third || first == third {
		t.Fatalf("expected distinct ids, got %q %q %q", first, second, third)
	}
	if second != first+"-2" || third != first+"-3" {
		t.Fatalf("expected numbered suffixes, got %q %q after %q", second, third, first)
	}
}

func TestUIDGenerator_ReservedExisting(t *testing.T) {
	g := NewUIDGenerator()
	base := g.Generate("node")

	g2 := NewUIDGenerator(base)
	if got := g2.Generate("node"); got == base {
		t.Fatalf("reserved id %q was reissued", base)
	}
}

func TestSlugifyASCII(t *testing.T) {
	cases := map[string]string{
		"Chat Input":   "chat-input",
		"  A  B  ":     "a-b",
		"___":          "",
		"GPT-4o mini!": "gpt-4o-mini",
	}
	for in, want := range cases {
		if got := slugifyASCII(in); got != want {
			t.Fatalf("slugifyASCII(%q) = %q, want %q", in, got, want)
		}
	}
}
