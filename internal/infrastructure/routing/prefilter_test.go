package routing

import (
	"testing"

	"github.com/Nyukimin/textmoe/internal/domain/expert"
)

func catalogPrefilter(t *testing.T) *PhrasePrefilter {
	t.Helper()

	reg, err := expert.NewRegistry(expert.DefaultCatalog())
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	return NewPhrasePrefilter(reg)
}

func TestPhrasePrefilter_Match(t *testing.T) {
	prefilter := catalogPrefilter(t)

	tests := []struct {
		name         string
		prompt       string
		expectExpert string
		expectPhrase string
	}{
		{
			name:         "物語フレーズ",
			prompt:       "Please write a story about a lighthouse keeper",
			expectExpert: "story",
			expectPhrase: "write a story",
		},
		{
			name:         "詩フレーズ",
			prompt:       "Can you compose a poem for my wedding?",
			expectExpert: "poem",
			expectPhrase: "compose a poem",
		},
		{
			name:         "メールフレーズ",
			prompt:       "I need a sick leave notification for tomorrow",
			expectExpert: "email",
			expectPhrase: "sick leave",
		},
		{
			name:         "大文字でも一致",
			prompt:       "WRITE A POEM ABOUT AUTUMN",
			expectExpert: "poem",
			expectPhrase: "write a poem",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expertID, phrase, confidence, matched := prefilter.Match(tt.prompt)

			if !matched {
				t.Fatal("Expected a phrase match")
			}

			if expertID != tt.expectExpert {
				t.Errorf("Expected expert '%s', got '%s'", tt.expectExpert, expertID)
			}

			if phrase != tt.expectPhrase {
				t.Errorf("Expected phrase '%s', got '%s'", tt.expectPhrase, phrase)
			}

			if confidence != phraseConfidence {
				t.Errorf("Expected confidence %f, got %f", phraseConfidence, confidence)
			}
		})
	}
}

func TestPhrasePrefilter_NoMatch(t *testing.T) {
	prefilter := catalogPrefilter(t)

	_, _, _, matched := prefilter.Match("What is the weather like today?")

	if matched {
		t.Error("Should not match without a high-confidence phrase")
	}
}

func TestPhrasePrefilter_PriorityOrderWins(t *testing.T) {
	prefilter := catalogPrefilter(t)

	// storyとemailの両フレーズを含む → 優先順位が先のstoryで確定
	expertID, _, _, matched := prefilter.Match("write a story and then draft an email about it")

	if !matched {
		t.Fatal("Expected a phrase match")
	}

	if expertID != "story" {
		t.Errorf("Expected story by priority order, got '%s'", expertID)
	}
}
