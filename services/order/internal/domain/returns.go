package domain

import (
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/orderforge/commerce/pkg/errors"
)

// ValidateReturn checks that a return request covers the order's product map
// exactly, same products with the same quantities. Any mismatch is rejected
// with a diagnostic listing the missing products, the extra products, and the
// per-product quantity deltas.
func ValidateReturn(original, returned map[string]int64) error {
	var missing, extra, deltas []string

	for productID, want := range original {
		got, ok := returned[productID]
		if !ok {
			missing = append(missing, productID)
			continue
		}
		if got != want {
			deltas = append(deltas, fmt.Sprintf("%s: want %d, got %d", productID, want, got))
		}
	}
	for productID := range returned {
		if _, ok := original[productID]; !ok {
			extra = append(extra, productID)
		}
	}

	if len(missing) == 0 && len(extra) == 0 && len(deltas) == 0 {
		return nil
	}

	sort.Strings(missing)
	sort.Strings(extra)
	sort.Strings(deltas)

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing products: "+strings.Join(missing, ", "))
	}
	if len(extra) > 0 {
		parts = append(parts, "unexpected products: "+strings.Join(extra, ", "))
	}
	if len(deltas) > 0 {
		parts = append(parts, "quantity mismatches: "+strings.Join(deltas, "; "))
	}

	return apperrors.InvalidInput("returned products do not match the order: " + strings.Join(parts, "; "))
}
