package binance

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// Signer produces the HMAC-SHA256 request signatures Binance requires on
// account endpoints.
type Signer struct {
	apiKey    string
	secretKey []byte
}

func NewSigner(apiKey, apiSecret string) (*Signer, error) {
	apiKey = strings.TrimSpace(apiKey)
	apiSecret = strings.TrimSpace(apiSecret)
	if apiKey == "" || apiSecret == "" {
		return nil, errors.New("api key and secret are required")
	}
	return &Signer{apiKey: apiKey, secretKey: []byte(apiSecret)}, nil
}

func (s *Signer) APIKey() string {
	return s.apiKey
}

// Sign returns the hex signature over the urlencoded query string.
func (s *Signer) Sign(query string) string {
	mac := hmac.New(sha256.New, s.secretKey)
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}
