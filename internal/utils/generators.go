package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// GenerateOrderID returns ORDER-<unix ms>-<6 uppercase base36 chars>.
func GenerateOrderID() string {
	return fmt.Sprintf("ORDER-%d-%s", time.Now().UnixMilli(), strings.ToUpper(randomBase36(6)))
}

func randomBase36(n int) string {
	var sb strings.Builder
	max := big.NewInt(int64(len(base36)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand does not fail on supported platforms
			idx = big.NewInt(time.Now().UnixNano() % int64(len(base36)))
		}
		sb.WriteByte(base36[idx.Int64()])
	}
	return sb.String()
}
