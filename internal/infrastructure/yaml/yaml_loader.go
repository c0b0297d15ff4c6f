package yaml

import (
	"bytes"
	"fmt"

	"github.com/Victor-armando18/service-rules/internal/domain"

	"gopkg.in/yaml.v3"
)

// ParseRulePack decodes a YAML rule pack document. Unknown fields are rejected
// so that typos in rule files surface at load time.
func ParseRulePack(data []byte) (domain.RulePackDocument, error) {
	var doc domain.RulePackDocument
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return domain.RulePackDocument{}, fmt.Errorf("%w: %v", domain.ErrInvalidRulePack, err)
	}
	return doc, nil
}
