package staging

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const tokenPrefix = "stg"

// NewToken generates a staging token: a millisecond timestamp plus a
// random suffix, unique without coordination.
func NewToken(now time.Time) string {
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("%s-%d-%s", tokenPrefix, now.UnixMilli(), suffix)
}

// ValidToken reports whether the value looks like a token this
// service issued.
func ValidToken(token string) bool {
	return strings.HasPrefix(token, tokenPrefix+"-") && len(token) > len(tokenPrefix)+1
}
