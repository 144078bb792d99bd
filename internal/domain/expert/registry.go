package expert

import (
	"fmt"

	"github.com/Nyukimin/textmoe/internal/domain/generation"
)

// Registry は登録済みエキスパートの読み取り専用コレクション。
// 登録順がそのまま優先順位（タイブレーク順）になる。
type Registry struct {
	order   []string
	experts map[string]Definition
}

// NewRegistry は定義リストからRegistryを構築。
// 各定義を検証し、不正があればErrConfigurationをラップして返す。
func NewRegistry(defs []Definition) (*Registry, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("no experts registered: %w", generation.ErrConfiguration)
	}

	r := &Registry{
		order:   make([]string, 0, len(defs)),
		experts: make(map[string]Definition, len(defs)),
	}

	for _, def := range defs {
		if err := def.Validate(); err != nil {
			return nil, err
		}

		if _, exists := r.experts[def.ID]; exists {
			return nil, fmt.Errorf("duplicate expert id %q: %w", def.ID, generation.ErrConfiguration)
		}

		r.order = append(r.order, def.ID)
		r.experts[def.ID] = def
	}

	return r, nil
}

// Get はIDでエキスパート定義を取得
func (r *Registry) Get(id string) (Definition, bool) {
	def, ok := r.experts[id]
	return def, ok
}

// All は優先順位順の全定義を返す
func (r *Registry) All() []Definition {
	defs := make([]Definition, 0, len(r.order))
	for _, id := range r.order {
		defs = append(defs, r.experts[id])
	}
	return defs
}

// IDs は優先順位順の全エキスパートIDを返す
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// Len は登録エキスパート数を返す
func (r *Registry) Len() int {
	return len(r.order)
}
