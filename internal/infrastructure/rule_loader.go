package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Victor-armando18/service-rules/internal/domain"
	"github.com/Victor-armando18/service-rules/internal/infrastructure/yaml"
	"github.com/Victor-armando18/service-rules/internal/interfaces"
	"github.com/sirupsen/logrus"
)

type FileRuleLoader struct {
	path string
	log  logrus.FieldLogger
}

// NewFileRuleLoader reads a rule pack from path; .json files are decoded as
// JSON, anything else as YAML.
func NewFileRuleLoader(path string, log logrus.FieldLogger) interfaces.RulePackLoader {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &FileRuleLoader{path: path, log: log}
}

// VersionedRulePath names the rule pack of a version inside dir, e.g. data/rules/v1_rules.yaml.
func VersionedRulePath(dir, version string) string {
	if !strings.HasPrefix(version, "v") {
		version = "v" + version
	}
	return filepath.Join(dir, fmt.Sprintf("%s_rules.yaml", version))
}

func (l *FileRuleLoader) Load(ctx context.Context) (*domain.RulePack, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file %s: %w", l.path, err)
	}
	doc, err := DecodeRulePack(l.path, data)
	if err != nil {
		return nil, err
	}
	return CompileRulePack(doc, l.path, l.log)
}

// DecodeRulePack decodes data according to the extension of name.
func DecodeRulePack(name string, data []byte) (domain.RulePackDocument, error) {
	if strings.EqualFold(filepath.Ext(name), ".json") {
		var doc domain.RulePackDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return domain.RulePackDocument{}, fmt.Errorf("%w: failed to unmarshal %s: %v", domain.ErrInvalidRulePack, name, err)
		}
		return doc, nil
	}
	return yaml.ParseRulePack(data)
}

// CompileRulePack compiles doc and reports actions that will be skipped.
func CompileRulePack(doc domain.RulePackDocument, source string, log logrus.FieldLogger) (*domain.RulePack, error) {
	pack, err := doc.Compile()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	for _, a := range pack.InvalidActions() {
		log.WithFields(logrus.Fields{
			"source":    source,
			"action_id": a.ID,
			"action":    a.Type,
		}).WithError(a.Err).Warn("action parameters are malformed, the action will be skipped")
	}
	log.WithFields(logrus.Fields{
		"source":  source,
		"version": pack.Version,
		"rules":   len(pack.Rules),
	}).Info("rule pack loaded")
	return pack, nil
}
