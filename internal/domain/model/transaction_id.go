package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PassTransactionPrefix marks cash-in operations that belong to this system.
// The webhook parser depends on this exact prefix and delimiter scheme; any
// id that does not match is somebody else's event and must be ignored.
const PassTransactionPrefix = "ACCESSPASS_"

// NewPassTransactionID builds the correlation id round-tripped through the
// payment gateway: ACCESSPASS_<userId>_<unixMillis>. Uniqueness per attempt
// comes from the millisecond timestamp; collisions are harmless because the
// webhook is idempotent on the user, not the transaction id.
func NewPassTransactionID(userID string, now time.Time) string {
	return fmt.Sprintf("%s%s_%d", PassTransactionPrefix, userID, now.UnixMilli())
}

// ParsePassTransactionID recovers the user id and initiation time from a
// correlation id. The user id may itself contain underscores, so the
// timestamp is taken from the last delimiter.
func ParsePassTransactionID(id string) (userID string, at time.Time, ok bool) {
	if !strings.HasPrefix(id, PassTransactionPrefix) {
		return "", time.Time{}, false
	}
	rest := id[len(PassTransactionPrefix):]
	i := strings.LastIndex(rest, "_")
	if i <= 0 || i == len(rest)-1 {
		return "", time.Time{}, false
	}
	ms, err := strconv.ParseInt(rest[i+1:], 10, 64)
	if err != nil || ms < 0 {
		return "", time.Time{}, false
	}
	return rest[:i], time.UnixMilli(ms), true
}
