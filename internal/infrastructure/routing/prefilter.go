package routing

import (
	"strings"

	"github.com/Nyukimin/textmoe/internal/domain/expert"
)

// phraseConfidence は高確度フレーズ一致時に報告する確信度
const phraseConfidence = 0.95

// PhrasePrefilter は明白なケース向けの高確度フレーズ事前フィルタ。
// エキスパート定義のPhrasesを優先順位順に照合し、最初の一致で確定する。
type PhrasePrefilter struct {
	entries []phraseEntry
}

// phraseEntry は単一エキスパートのフレーズ群
type phraseEntry struct {
	expertID string
	phrases  []string
}

// NewPhrasePrefilter は新しいPhrasePrefilterを作成
func NewPhrasePrefilter(registry *expert.Registry) *PhrasePrefilter {
	entries := make([]phraseEntry, 0, registry.Len())
	for _, def := range registry.All() {
		if len(def.Phrases) == 0 {
			continue
		}
		entries = append(entries, phraseEntry{
			expertID: def.ID,
			phrases:  def.Phrases,
		})
	}

	return &PhrasePrefilter{entries: entries}
}

// Match はプロンプトを高確度フレーズと照合
func (p *PhrasePrefilter) Match(prompt string) (string, string, float64, bool) {
	lowered := strings.ToLower(prompt)

	for _, entry := range p.entries {
		for _, phrase := range entry.phrases {
			if strings.Contains(lowered, phrase) {
				return entry.expertID, phrase, phraseConfidence, true
			}
		}
	}

	return "", "", 0, false
}
