package purchases

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/angelmondragon/ticketing-backend/pkg/db/models"
)

// SnapshotHash is the hex SHA-256 of the JSON array of snapshot line ids in
// ascending order. Settlement recomputes it to detect altered snapshots.
func SnapshotHash(lines []models.PurchaseLine) string {
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ID.String())
	}
	sort.Strings(ids)
	payload, _ := json.Marshal(ids)
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
