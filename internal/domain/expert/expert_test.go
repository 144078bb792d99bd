package expert

import (
	"errors"
	"strings"
	"testing"

	"github.com/Nyukimin/textmoe/internal/domain/generation"
)

func validDefinition() Definition {
	return Definition{
		ID:          "story",
		Description: "test story expert",
		Keywords: map[string]int{
			"story": 10,
			"tale":  5,
		},
		SystemInstruction: "You are a story writer.",
		Generation: GenerationConfig{
			Temperature: 0.8,
			MaxTokens:   2000,
			TopP:        0.95,
		},
		Available: true,
	}
}

func TestDefinition_Validate_Success(t *testing.T) {
	def := validDefinition()

	if err := def.Validate(); err != nil {
		t.Fatalf("Validate failed for valid definition: %v", err)
	}
}

func TestDefinition_Validate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Definition)
	}{
		{
			name:   "空のID",
			mutate: func(d *Definition) { d.ID = "" },
		},
		{
			name:   "キーワードなし",
			mutate: func(d *Definition) { d.Keywords = nil },
		},
		{
			name:   "重み0",
			mutate: func(d *Definition) { d.Keywords = map[string]int{"story": 0} },
		},
		{
			name:   "重みが上限超過",
			mutate: func(d *Definition) { d.Keywords = map[string]int{"story": 11} },
		},
		{
			name:   "大文字キーワード",
			mutate: func(d *Definition) { d.Keywords = map[string]int{"Story": 5} },
		},
		{
			name:   "空のキーワード",
			mutate: func(d *Definition) { d.Keywords = map[string]int{"": 5} },
		},
		{
			name:   "指示文なし",
			mutate: func(d *Definition) { d.SystemInstruction = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := validDefinition()
			tt.mutate(&def)

			err := def.Validate()
			if err == nil {
				t.Fatal("Validate should fail")
			}

			if !errors.Is(err, generation.ErrConfiguration) {
				t.Errorf("Error should wrap ErrConfiguration, got: %v", err)
			}
		})
	}
}

func TestDefinition_TotalWeight(t *testing.T) {
	def := validDefinition()

	if got := def.TotalWeight(); got != 15 {
		t.Errorf("Expected total weight 15, got %d", got)
	}
}

func TestDefinition_BuildRequest(t *testing.T) {
	def := validDefinition()

	req := def.BuildRequest("Write about dragons")

	if req.SystemPrompt != def.SystemInstruction {
		t.Errorf("Expected system prompt from definition, got '%s'", req.SystemPrompt)
	}

	if len(req.Messages) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(req.Messages))
	}

	if req.Messages[0].Role != "user" {
		t.Errorf("Expected user role, got '%s'", req.Messages[0].Role)
	}

	if req.Messages[0].Content != "Write about dragons" {
		t.Errorf("Prompt should be passed unmodified, got '%s'", req.Messages[0].Content)
	}

	if req.Temperature != 0.8 || req.MaxTokens != 2000 || req.TopP != 0.95 {
		t.Errorf("Generation config not attached: temp=%f max=%d topP=%f",
			req.Temperature, req.MaxTokens, req.TopP)
	}
}

func TestDefinition_ComposedPrompt(t *testing.T) {
	def := validDefinition()

	composed := def.ComposedPrompt("Write about dragons")

	if !strings.HasPrefix(composed, def.SystemInstruction) {
		t.Error("Composed prompt should start with the system instruction")
	}

	if !strings.HasSuffix(composed, "Write about dragons") {
		t.Error("Composed prompt should end with the raw prompt")
	}
}

func TestDefinition_ParseResponse_StripsInstructionEcho(t *testing.T) {
	def := validDefinition()
	prompt := "Write about dragons"

	raw := def.SystemInstruction + "\n\n" + prompt + "\n\nOnce there was a dragon."

	got := def.ParseResponse(prompt, raw)

	if got != "Once there was a dragon." {
		t.Errorf("Expected echo stripped, got '%s'", got)
	}
}

func TestDefinition_ParseResponse_PureEchoReturnsPrompt(t *testing.T) {
	// エコーモデルとの往復：元のプロンプトがそのまま返る
	def := validDefinition()
	prompt := "Write about dragons"

	raw := def.ComposedPrompt(prompt)

	got := def.ParseResponse(prompt, raw)
	if got != prompt {
		t.Errorf("Round-trip should return the original prompt, got '%s'", got)
	}
}

func TestDefinition_ParseResponse_Idempotent(t *testing.T) {
	def := validDefinition()
	prompt := "Write about dragons"

	raw := def.ComposedPrompt(prompt)

	once := def.ParseResponse(prompt, raw)
	twice := def.ParseResponse(prompt, once)

	if once != twice {
		t.Errorf("ParseResponse should be idempotent: first '%s', second '%s'", once, twice)
	}
}

func TestDefinition_ParseResponse_PlainTextUntouched(t *testing.T) {
	def := validDefinition()

	got := def.ParseResponse("Write about dragons", "  A dragon soared over the cliffs.  ")

	if got != "A dragon soared over the cliffs." {
		t.Errorf("Plain output should only be trimmed, got '%s'", got)
	}
}
