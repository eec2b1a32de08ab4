package notifier

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/openrwa/rwa-ledger/internal/domain"
)

// GenerateSignedPayload serializes a ledger event and signs it with HMAC-SHA256.
// Returns the JSON payload and the signature header value.
//
// The signature covers "{timestamp}.{event_id}.{json_body}" so clients can verify:
// 1. The timestamp to prevent replay attacks
// 2. The event ID for deduplication
// 3. The entire payload integrity
func GenerateSignedPayload(secret string, event *domain.LedgerEvent, timestamp int64) (payload []byte, signature string, err error) {
	payload, err = json.Marshal(event)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal event: %w", err)
	}

	signaturePayload := fmt.Sprintf("%d.%s.%s", timestamp, event.ID, string(payload))

	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(signaturePayload))

	// Format: "sha256=<hex_signature>"
	signature = "sha256=" + hex.EncodeToString(h.Sum(nil))

	return payload, signature, nil
}
