package engine

import (
	"github.com/Victor-armando18/service-rules/internal/infrastructure"
	"github.com/sirupsen/logrus"
)

// NewFileLoader reads a YAML or JSON rule pack from path.
func NewFileLoader(path string, log logrus.FieldLogger) RulePackLoader {
	return infrastructure.NewFileRuleLoader(path, log)
}

// NewVersionLoader reads <dir>/v<version>_rules.yaml.
func NewVersionLoader(dir, version string, log logrus.FieldLogger) RulePackLoader {
	return infrastructure.NewFileRuleLoader(infrastructure.VersionedRulePath(dir, version), log)
}

// ParseRulePack decodes and compiles a rule pack; name selects JSON (.json) or YAML.
func ParseRulePack(name string, data []byte, log logrus.FieldLogger) (*RulePack, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	doc, err := infrastructure.DecodeRulePack(name, data)
	if err != nil {
		return nil, err
	}
	return infrastructure.CompileRulePack(doc, name, log)
}
