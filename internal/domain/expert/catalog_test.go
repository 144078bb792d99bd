package expert

import (
	"strings"
	"testing"
)

func TestDefaultCatalog_AllValid(t *testing.T) {
	for _, def := range DefaultCatalog() {
		t.Run(def.ID, func(t *testing.T) {
			if err := def.Validate(); err != nil {
				t.Errorf("Catalog definition invalid: %v", err)
			}
		})
	}
}

func TestDefaultCatalog_PositiveTotalWeight(t *testing.T) {
	// 起動時不変条件：すべてのエキスパートで重み合計が正
	for _, def := range DefaultCatalog() {
		if def.TotalWeight() <= 0 {
			t.Errorf("Expert '%s' has non-positive total weight %d", def.ID, def.TotalWeight())
		}
	}
}

func TestDefaultCatalog_AllAvailable(t *testing.T) {
	for _, def := range DefaultCatalog() {
		if !def.Available {
			t.Errorf("Expert '%s' should be available by default", def.ID)
		}
	}
}

func TestDefaultCatalog_KeywordsLowercase(t *testing.T) {
	for _, def := range DefaultCatalog() {
		for keyword := range def.Keywords {
			if keyword != strings.ToLower(keyword) {
				t.Errorf("Expert '%s' keyword '%s' is not lowercase", def.ID, keyword)
			}
		}
	}
}

func TestDefaultCatalog_PhrasesLowercase(t *testing.T) {
	// フレーズ照合は小文字化したプロンプトに対して行うため、定義側も小文字であること
	for _, def := range DefaultCatalog() {
		for _, phrase := range def.Phrases {
			if phrase != strings.ToLower(phrase) {
				t.Errorf("Expert '%s' phrase '%s' is not lowercase", def.ID, phrase)
			}
		}
	}
}
