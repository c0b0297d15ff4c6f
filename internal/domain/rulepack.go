package domain

import (
	"fmt"
	"strings"
)

// RulePackDocument is the on-disk shape of a rule pack (YAML or JSON).
// Rules reference triggers by code and labels by name.
type RulePackDocument struct {
	Version     string         `json:"version" yaml:"version"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Labels      []Label        `json:"labels" yaml:"labels"`
	Triggers    []Trigger      `json:"triggers" yaml:"triggers"`
	Rules       []RuleDocument `json:"rules" yaml:"rules"`
}

type RuleDocument struct {
	ID          int64               `json:"id" yaml:"id"`
	Name        string              `json:"name" yaml:"name"`
	Description string              `json:"description,omitempty" yaml:"description,omitempty"`
	Status      RuleStatus          `json:"status" yaml:"status"`
	Trigger     string              `json:"trigger" yaml:"trigger"`
	Labels      []string            `json:"labels,omitempty" yaml:"labels,omitempty"`
	Conditions  []ConditionDocument `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Actions     []ActionDocument    `json:"actions,omitempty" yaml:"actions,omitempty"`
}

type ConditionDocument struct {
	ID       int64     `json:"id,omitempty" yaml:"id,omitempty"`
	Entity   LabelKind `json:"entity" yaml:"entity"`
	Operator Operator  `json:"operator" yaml:"operator"`
	Label    string    `json:"label" yaml:"label"`
}

type ActionDocument struct {
	ID     int64          `json:"id,omitempty" yaml:"id,omitempty"`
	Type   ActionType     `json:"type" yaml:"type"`
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// RulePack is a compiled, immutable rule configuration snapshot.
type RulePack struct {
	Version     string
	Description string
	Labels      []Label
	Triggers    []Trigger
	Rules       []Rule
}

// LabelByName looks up a label of the pack; names are matched case-sensitively.
func (p *RulePack) LabelByName(name string) (Label, bool) {
	for _, l := range p.Labels {
		if l.Name == name {
			return l, true
		}
	}
	return Label{}, false
}

func (p *RulePack) Trigger(code string) (Trigger, bool) {
	for _, t := range p.Triggers {
		if t.Code == code {
			return t, true
		}
	}
	return Trigger{}, false
}

// InvalidActions lists actions whose parameters failed to decode.
func (p *RulePack) InvalidActions() []Action {
	var out []Action
	for _, r := range p.Rules {
		for _, a := range r.Actions {
			if a.Err != nil {
				out = append(out, a)
			}
		}
	}
	return out
}

// Compile resolves names to labels and triggers and decodes action parameters.
// Structural problems (unknown references, duplicate codes) are errors;
// malformed action parameters are not, see Action.Err.
func (d RulePackDocument) Compile() (*RulePack, error) {
	pack := &RulePack{Version: d.Version, Description: d.Description}

	labelsByName := make(map[string]Label, len(d.Labels))
	seenIDs := make(map[int64]bool, len(d.Labels))
	for _, l := range d.Labels {
		if strings.TrimSpace(l.Name) == "" {
			return nil, fmt.Errorf("%w: label %d has no name", ErrInvalidRulePack, l.ID)
		}
		if _, dup := labelsByName[l.Name]; dup || seenIDs[l.ID] {
			return nil, fmt.Errorf("%w: duplicate label %q", ErrInvalidRulePack, l.Name)
		}
		if l.Kind != "" && !l.Kind.Valid() {
			return nil, fmt.Errorf("%w: label %q has unknown kind %q", ErrInvalidRulePack, l.Name, l.Kind)
		}
		labelsByName[l.Name] = l
		seenIDs[l.ID] = true
		pack.Labels = append(pack.Labels, l)
	}

	triggerIDs, ruleIDs, condIDs, actionIDs, err := d.explicitIDs()
	if err != nil {
		return nil, err
	}

	triggers := make(map[string]Trigger, len(d.Triggers))
	for _, t := range d.Triggers {
		if t.Code == "" {
			return nil, fmt.Errorf("%w: trigger %q has no code", ErrInvalidRulePack, t.Name)
		}
		if _, dup := triggers[t.Code]; dup {
			return nil, fmt.Errorf("%w: duplicate trigger code %q", ErrInvalidRulePack, t.Code)
		}
		t.ID = triggerIDs.assign(t.ID)
		triggers[t.Code] = t
		pack.Triggers = append(pack.Triggers, t)
	}

	for _, rd := range d.Rules {
		trigger, ok := triggers[rd.Trigger]
		if !ok {
			return nil, fmt.Errorf("%w: rule %q references unknown trigger %q", ErrInvalidRulePack, rd.Name, rd.Trigger)
		}
		status := rd.Status
		if status == "" {
			status = RuleDisabled
		}
		if status != RuleEnabled && status != RuleDisabled {
			return nil, fmt.Errorf("%w: rule %q has unknown status %q", ErrInvalidRulePack, rd.Name, rd.Status)
		}
		rule := Rule{
			ID:          ruleIDs.assign(rd.ID),
			Name:        rd.Name,
			Description: rd.Description,
			Status:      status,
			Trigger:     trigger,
		}
		for _, name := range rd.Labels {
			l, ok := labelsByName[name]
			if !ok {
				return nil, fmt.Errorf("%w: rule %q gate references unknown label %q", ErrInvalidRulePack, rd.Name, name)
			}
			rule.GateLabels = append(rule.GateLabels, l)
		}
		for _, cd := range rd.Conditions {
			l, ok := labelsByName[cd.Label]
			if !ok {
				return nil, fmt.Errorf("%w: rule %q condition references unknown label %q", ErrInvalidRulePack, rd.Name, cd.Label)
			}
			rule.Conditions = append(rule.Conditions, Condition{
				ID:         condIDs.assign(cd.ID),
				EntityKind: cd.Entity,
				Operator:   cd.Operator,
				Label:      l,
			})
		}
		for _, ad := range rd.Actions {
			rule.Actions = append(rule.Actions, NewAction(actionIDs.assign(ad.ID), ad.Type, ad.Params))
		}
		pack.Rules = append(pack.Rules, rule)
	}
	return pack, nil
}

// explicitIDs collects the IDs written in the document, one set per table.
// Duplicates are errors; entries without an ID are numbered after the highest
// explicit one.
func (d RulePackDocument) explicitIDs() (triggers, rules, conditions, actions *idSet, err error) {
	triggers, rules, conditions, actions = newIDSet("trigger"), newIDSet("rule"), newIDSet("condition"), newIDSet("action")
	for _, t := range d.Triggers {
		if err = triggers.reserve(t.ID); err != nil {
			return
		}
	}
	for _, r := range d.Rules {
		if err = rules.reserve(r.ID); err != nil {
			return
		}
		for _, c := range r.Conditions {
			if err = conditions.reserve(c.ID); err != nil {
				return
			}
		}
		for _, a := range r.Actions {
			if err = actions.reserve(a.ID); err != nil {
				return
			}
		}
	}
	return
}

type idSet struct {
	what string
	used map[int64]bool
	last int64
}

func newIDSet(what string) *idSet {
	return &idSet{what: what, used: map[int64]bool{}}
}

func (s *idSet) reserve(id int64) error {
	if id == 0 {
		return nil
	}
	if s.used[id] {
		return fmt.Errorf("%w: duplicate %s id %d", ErrInvalidRulePack, s.what, id)
	}
	s.used[id] = true
	if id > s.last {
		s.last = id
	}
	return nil
}

func (s *idSet) assign(id int64) int64 {
	if id != 0 {
		return id
	}
	s.last++
	return s.last
}
