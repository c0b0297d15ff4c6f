package infrastructure

import (
	"encoding/json"
	"fmt"

	"github.com/Victor-armando18/service-rules/internal/domain"
	jsonpatch "github.com/evanphx/json-patch/v5"
)

// ApplyOrderPatch applies an RFC 6902 patch to the order and returns the updated copy.
func ApplyOrderPatch(original domain.Order, patchData []byte) (domain.Order, error) {
	originalJSON, err := json.Marshal(original)
	if err != nil {
		return original, err
	}

	patch, err := jsonpatch.DecodePatch(patchData)
	if err != nil {
		return original, fmt.Errorf("failed to decode patch: %w", err)
	}

	modifiedJSON, err := patch.Apply(originalJSON)
	if err != nil {
		return original, fmt.Errorf("failed to apply patch: %w", err)
	}

	var updatedOrder domain.Order
	if err := json.Unmarshal(modifiedJSON, &updatedOrder); err != nil {
		return original, err
	}
	return updatedOrder, nil
}

// OrderDelta returns the RFC 7386 merge patch turning before into after.
// An empty object means nothing changed.
func OrderDelta(before, after domain.Order) (json.RawMessage, error) {
	beforeJSON, err := json.Marshal(before)
	if err != nil {
		return nil, err
	}
	afterJSON, err := json.Marshal(after)
	if err != nil {
		return nil, err
	}
	patch, err := jsonpatch.CreateMergePatch(beforeJSON, afterJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to diff order: %w", err)
	}
	return patch, nil
}
