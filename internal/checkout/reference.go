package checkout

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// newReference mints an order reference. The millisecond stamp keeps
// references sortable; the random suffix keeps concurrent checkouts in the
// same millisecond pairwise distinct.
func newReference() string {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return fmt.Sprintf("ORD-%d-%x", time.Now().UnixMilli(), time.Now().UnixNano()&0xffffffff)
	}
	return fmt.Sprintf("ORD-%d-%s", time.Now().UnixMilli(), hex.EncodeToString(suffix))
}
