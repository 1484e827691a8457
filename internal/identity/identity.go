// Package identity resolves who is invoking a ledger operation.
//
// It provides:
//   - Caller           : the (client id, provider) pair every operation runs as
//   - FromCreator      : derives a Caller from a serialized creator blob
//   - SerializeIdentity: builds the creator blob for an MSP id and certificate
//   - TokenIssuer      : HS256 caller tokens carrying a creator blob
//   - Authenticate     : Gin middleware resolving the Caller for a request
package identity

import (
	"encoding/base64"
	"strings"

	"github.com/jmerrifield20/recordledger/internal/fault"
)

// providerMarker separates the provider (MSP) name from the rest of the
// creator blob.
const providerMarker = "MSP"

// Caller is the identity a ledger operation is executed under.
type Caller struct {
	// ClientID identifies the invoking client. For creator blobs it is the
	// base64 encoding of the whole blob.
	ClientID string `json:"client_id"`
	// Provider is the organization that issued the client's certificate.
	Provider string `json:"provider"`
}

// FromCreator derives the Caller for a serialized creator blob.
//
// The provider is the text preceding the first "MSP" marker with the first
// newline and the first form feed removed and every remaining control
// character (U+0000 to U+001F) stripped.
func FromCreator(blob []byte) (Caller, error) {
	if len(blob) == 0 {
		return Caller{}, fault.Malformedf("empty creator")
	}
	provider := ProviderFromCreator(blob)
	if provider == "" {
		return Caller{}, fault.Malformedf("creator does not name a provider")
	}
	return Caller{
		ClientID: base64.StdEncoding.EncodeToString(blob),
		Provider: provider,
	}, nil
}

// FromCreatorBase64 decodes a base64 creator blob and calls FromCreator.
func FromCreatorBase64(s string) (Caller, error) {
	blob, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return Caller{}, fault.Malformedf("creator is not valid base64")
	}
	return FromCreator(blob)
}

// ProviderFromCreator extracts the provider name from a creator blob.
func ProviderFromCreator(blob []byte) string {
	head, _, _ := strings.Cut(string(blob), providerMarker)
	head = strings.Replace(head, "\n", "", 1)
	head = strings.Replace(head, "\f", "", 1)
	return strings.Map(func(r rune) rune {
		if r < 0x20 {
			return -1
		}
		return r
	}, head)
}
