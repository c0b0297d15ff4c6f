package infrastructure

import (
	"context"
	"fmt"
	"sync"

	"github.com/Victor-armando18/service-rules/internal/domain"
)

// MemoryRuleRepository serves rules from a compiled rule pack. Replace swaps
// the snapshot atomically; in-flight evaluations keep the rules they already read.
type MemoryRuleRepository struct {
	mu        sync.RWMutex
	pack      *domain.RulePack
	byTrigger map[string][]domain.Rule
}

func NewMemoryRuleRepository(pack *domain.RulePack) *MemoryRuleRepository {
	r := &MemoryRuleRepository{}
	r.Replace(pack)
	return r
}

func (r *MemoryRuleRepository) Replace(pack *domain.RulePack) {
	if pack == nil {
		pack = &domain.RulePack{}
	}
	index := make(map[string][]domain.Rule, len(pack.Triggers))
	for _, t := range pack.Triggers {
		index[t.Code] = []domain.Rule{}
	}
	for _, rule := range pack.Rules {
		if !rule.Enabled() {
			continue
		}
		index[rule.Trigger.Code] = append(index[rule.Trigger.Code], rule)
	}

	r.mu.Lock()
	r.pack = pack
	r.byTrigger = index
	r.mu.Unlock()
}

func (r *MemoryRuleRepository) Pack() *domain.RulePack {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pack
}

func (r *MemoryRuleRepository) TriggerExists(ctx context.Context, code string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byTrigger[code]
	return ok, nil
}

func (r *MemoryRuleRepository) CandidateRules(ctx context.Context, code string) ([]domain.Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rules, ok := r.byTrigger[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownTrigger, code)
	}
	out := make([]domain.Rule, len(rules))
	copy(out, rules)
	return out, nil
}
