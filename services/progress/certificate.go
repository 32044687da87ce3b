package progress

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewCertificateNumber returns CERT-<year>-<8 uppercase hex>.
func NewCertificateNumber(issued time.Time) string {
	id := uuid.New()
	return fmt.Sprintf("CERT-%d-%s", issued.Year(), strings.ToUpper(hex.EncodeToString(id[:4])))
}
