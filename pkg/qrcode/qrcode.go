// Package qrcode renders a join URL as a PNG QR code, letting players scan
// a projected code straight into a session instead of typing the 4-digit
// code by hand.
package qrcode

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

const pixelSize = 256

// Encode renders joinURL as a PNG-encoded QR code.
func Encode(joinURL string) ([]byte, error) {
	png, err := qrcode.Encode(joinURL, qrcode.Medium, pixelSize)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qrcode: %w", err)
	}
	return png, nil
}
