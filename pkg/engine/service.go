package engine

import (
	"context"

	"github.com/Victor-armando18/service-rules/internal/infrastructure"
	"github.com/Victor-armando18/service-rules/internal/usecase"
	"github.com/sirupsen/logrus"
)

type options struct {
	log     logrus.FieldLogger
	metrics EngineMetrics
}

type Option func(*options)

func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) { o.log = l }
}

func WithMetrics(m EngineMetrics) Option {
	return func(o *options) { o.metrics = m }
}

// Engine is a rule engine over an in-memory rule pack.
type Engine struct {
	*usecase.EngineService
	repo   *infrastructure.MemoryRuleRepository
	loader RulePackLoader
}

// New wires the default label resolver, JsonLogic condition evaluator and
// discount executor around repo.
func New(repo RuleRepository, opts ...Option) *usecase.EngineService {
	o := options{log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	svcOpts := []usecase.Option{usecase.WithLogger(o.log)}
	if o.metrics != nil {
		svcOpts = append(svcOpts, usecase.WithMetrics(o.metrics))
	}
	return usecase.NewEngineService(
		repo,
		infrastructure.NewEntityLabelResolver(),
		infrastructure.NewJsonLogicConditionEvaluator(o.log),
		infrastructure.NewRuleActionExecutor(o.log),
		svcOpts...,
	)
}

// Load builds an Engine from the rule pack returned by loader.
func Load(ctx context.Context, loader RulePackLoader, opts ...Option) (*Engine, error) {
	pack, err := loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	repo := infrastructure.NewMemoryRuleRepository(pack)
	return &Engine{EngineService: New(repo, opts...), repo: repo, loader: loader}, nil
}

// Reload fetches the rule pack again and swaps it in. On error the current
// pack stays in place.
func (e *Engine) Reload(ctx context.Context) error {
	pack, err := e.loader.Load(ctx)
	if err != nil {
		return err
	}
	e.repo.Replace(pack)
	return nil
}

// Pack returns the rule pack currently in use.
func (e *Engine) Pack() *RulePack {
	return e.repo.Pack()
}
