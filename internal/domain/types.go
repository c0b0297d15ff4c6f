package domain

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// --- Labels ---

// LabelKind identifies the entity category a label was created for.
type LabelKind string

const (
	LabelKindCustomer     LabelKind = "CUSTOMER"
	LabelKindProfessional LabelKind = "PROFESSIONAL"
	LabelKindService      LabelKind = "SERVICE"
	LabelKindOrder        LabelKind = "ORDER"
	LabelKindItem         LabelKind = "ITEM"
	LabelKindPrice        LabelKind = "PRICE"
	LabelKindTemplate     LabelKind = "TEMPLATE"
)

func (k LabelKind) Valid() bool {
	switch k {
	case LabelKindCustomer, LabelKindProfessional, LabelKindService, LabelKindOrder,
		LabelKindItem, LabelKindPrice, LabelKindTemplate:
		return true
	}
	return false
}

// Label is a shared tag. Two labels are the same label iff their IDs match.
type Label struct {
	ID          int64     `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Kind        LabelKind `json:"kind" yaml:"kind"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Color       string    `json:"color,omitempty" yaml:"color,omitempty"`
}

// Key is the identity token used when a label set is handed to an expression evaluator.
func (l Label) Key() string {
	return "label-" + strconv.FormatInt(l.ID, 10)
}

// LabelSet is the effective label set of a resolved subject, keyed by label ID.
type LabelSet map[int64]Label

func NewLabelSet(labels ...Label) LabelSet {
	s := make(LabelSet, len(labels))
	for _, l := range labels {
		s[l.ID] = l
	}
	return s
}

func (s LabelSet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// IntersectsAny reports whether at least one of labels belongs to the set.
func (s LabelSet) IntersectsAny(labels []Label) bool {
	for _, l := range labels {
		if s.Has(l.ID) {
			return true
		}
	}
	return false
}

// Keys returns the label keys in ascending ID order. Never nil.
func (s LabelSet) Keys() []string {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, s[id].Key())
	}
	return keys
}

// --- Subjects ---

// SubjectKind is the closed set of entities the engine accepts as a subject.
type SubjectKind int

const (
	SubjectUnknown SubjectKind = iota
	SubjectOrder
	SubjectPrice
	SubjectCustomer
	SubjectProfessional
	SubjectTemplate
	SubjectItem
	SubjectService
)

func (k SubjectKind) String() string {
	switch k {
	case SubjectOrder:
		return "order"
	case SubjectPrice:
		return "price"
	case SubjectCustomer:
		return "customer"
	case SubjectProfessional:
		return "professional"
	case SubjectTemplate:
		return "template"
	case SubjectItem:
		return "item"
	case SubjectService:
		return "service"
	}
	return "unknown"
}

// EvaluationMode selects how a rule's conditions are combined.
type EvaluationMode int

const (
	// ModeDecision AND-combines conditions and executes actions of every satisfied rule.
	ModeDecision EvaluationMode = iota
	// ModeApplicability OR-combines conditions and stops at the first satisfied rule.
	ModeApplicability
)

func (m EvaluationMode) String() string {
	if m == ModeApplicability {
		return "applicability"
	}
	return "decision"
}

// Mode returns the evaluation mode used when a subject of this kind is passed to the engine.
func (k SubjectKind) Mode() EvaluationMode {
	switch k {
	case SubjectPrice:
		return ModeApplicability
	case SubjectOrder, SubjectCustomer, SubjectProfessional, SubjectTemplate,
		SubjectItem, SubjectService, SubjectUnknown:
		return ModeDecision
	}
	return ModeDecision
}

// Subject is anything the engine can be asked about.
type Subject interface {
	Kind() SubjectKind
}

// Labeled is implemented by subjects that carry their own labels.
type Labeled interface {
	Subject
	LabelSet() LabelSet
}

// KindOf tolerates a nil subject.
func KindOf(s Subject) SubjectKind {
	if s == nil {
		return SubjectUnknown
	}
	return s.Kind()
}

type Customer struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name,omitempty"`
	WeddingDay *time.Time `json:"weddingDay,omitempty"`
	Labels     []Label    `json:"labels,omitempty"`
}

func (c *Customer) Kind() SubjectKind { return SubjectCustomer }

func (c *Customer) LabelSet() LabelSet {
	if c == nil {
		return NewLabelSet()
	}
	return NewLabelSet(c.Labels...)
}

type Professional struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name,omitempty"`
	Labels []Label `json:"labels,omitempty"`
}

func (p *Professional) Kind() SubjectKind { return SubjectProfessional }

func (p *Professional) LabelSet() LabelSet {
	if p == nil {
		return NewLabelSet()
	}
	return NewLabelSet(p.Labels...)
}

type Template struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name,omitempty"`
	Labels []Label `json:"labels,omitempty"`
}

func (t *Template) Kind() SubjectKind { return SubjectTemplate }

func (t *Template) LabelSet() LabelSet {
	if t == nil {
		return NewLabelSet()
	}
	return NewLabelSet(t.Labels...)
}

// Price is a catalog price point. Its own labels drive applicability.
type Price struct {
	ID          int64           `json:"id"`
	Description string          `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	IsActive    bool            `json:"isActive"`
	Labels      []Label         `json:"labels,omitempty"`
}

func (p *Price) Kind() SubjectKind { return SubjectPrice }

func (p *Price) LabelSet() LabelSet {
	if p == nil {
		return NewLabelSet()
	}
	return NewLabelSet(p.Labels...)
}

// Item and Service carry labels in the catalog but are not resolved by the engine.
type Item struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name,omitempty"`
	Labels []Label `json:"labels,omitempty"`
}

func (i *Item) Kind() SubjectKind { return SubjectItem }

type Service struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name,omitempty"`
	Labels []Label `json:"labels,omitempty"`
}

func (s *Service) Kind() SubjectKind { return SubjectService }

// Order has no labels of its own; rules see the labels of its customer.
type Order struct {
	ID              int64           `json:"id"`
	Status          string          `json:"status,omitempty"`
	Customer        *Customer       `json:"customer,omitempty"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	AppliedDiscount *DiscountResult `json:"appliedDiscount,omitempty"`
}

func (o *Order) Kind() SubjectKind { return SubjectOrder }

// WithDiscount returns a copy of the order with the discount applied to its total.
func (o Order) WithDiscount(res *DiscountResult) Order {
	if res == nil {
		return o
	}
	o.TotalAmount = res.FinalTotal
	o.AppliedDiscount = res
	return o
}

// --- Rules ---

type RuleStatus string

const (
	RuleEnabled  RuleStatus = "ENABLED"
	RuleDisabled RuleStatus = "DISABLED"
)

type Trigger struct {
	ID   int64  `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Code string `json:"code" yaml:"code"`
}

type Operator string

const (
	OpHasLabel Operator = "HAS_LABEL"
	OpNotLabel Operator = "NOT_LABEL"
)

// Condition tests whether the resolved subject carries (or lacks) one label.
// EntityKind records what the condition was authored for; evaluation does not use it.
type Condition struct {
	ID         int64
	EntityKind LabelKind
	Operator   Operator
	Label      Label
}

type Rule struct {
	ID          int64
	Name        string
	Description string
	Status      RuleStatus
	Trigger     Trigger
	GateLabels  []Label
	Conditions  []Condition
	Actions     []Action
}

func (r Rule) Enabled() bool { return r.Status == RuleEnabled }

// PassesGate reports whether labels satisfy the rule-level label gate.
func (r Rule) PassesGate(labels LabelSet) bool {
	return len(r.GateLabels) == 0 || labels.IntersectsAny(r.GateLabels)
}

// --- Results ---

type DiscountResult struct {
	Percentage     decimal.Decimal `json:"percentage"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	Description    string          `json:"description"`
	FinalTotal     decimal.Decimal `json:"finalTotal"`
	OriginalTotal  decimal.Decimal `json:"originalTotal"`
}

type ExecutionStep struct {
	Phase    string `json:"phase"`
	RuleID   int64  `json:"ruleId"`
	RuleName string `json:"ruleName"`
	Message  string `json:"message"`
}

// Outcome is the result of one engine invocation. Applicable is meaningful in
// applicability mode, Discount in decision mode.
type Outcome struct {
	Mode         EvaluationMode  `json:"-"`
	TriggerCode  string          `json:"trigger"`
	Applicable   bool            `json:"applicable"`
	Discount     *DiscountResult `json:"discount,omitempty"`
	MatchedRules []int64         `json:"matchedRules"`
	ExecutionLog []ExecutionStep `json:"executionLog"`
}

// --- Errors ---
var (
	ErrRuleExecutionFailed = fmt.Errorf("rule execution failed")
	ErrUnknownTrigger      = errors.New("unknown rule trigger")
	ErrInvalidActionParams = errors.New("invalid action parameters")
	ErrInvalidRulePack     = errors.New("invalid rule pack")
)
