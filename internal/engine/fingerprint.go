package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/replay-lab/replay-trading/internal/types"
)

// Fingerprint computes the content hash of a bar sequence. The
// serialization is canonical: UTC RFC3339Nano timestamps and exact
// decimal strings, one line per bar, so equal sequences always hash
// equal and any change to any bar changes the hash.
func Fingerprint(bars []types.Bar) string {
	h := sha256.New()

	var sb strings.Builder

	for i := range bars {
		b := &bars[i]
		sb.Reset()

		fmt.Fprintf(&sb, "%s|%s|%s|%s|%s|%s\n",
			b.Timestamp.UTC().Format("2006-01-02T15:04:05.999999999Z07:00"),
			b.Open.String(),
			b.High.String(),
			b.Low.String(),
			b.Close.String(),
			b.Volume.String(),
		)

		h.Write([]byte(sb.String()))
	}

	return hex.EncodeToString(h.Sum(nil))
}
