package qr

import (
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
)

const defaultSize = 256

type QRGenerator struct {
	baseURL string
	size    int
}

func NewQRGenerator(baseURL string, size int) *QRGenerator {
	if size <= 0 {
		size = defaultSize
	}
	return &QRGenerator{baseURL: strings.TrimRight(baseURL, "/"), size: size}
}

// Link is the public address of an invitation.
func (q *QRGenerator) Link(slug string) string {
	return fmt.Sprintf("%s/invitation/%s", q.baseURL, slug)
}

// InvitationPNG encodes the invitation's public link as a PNG QR code.
func (q *QRGenerator) InvitationPNG(slug string) ([]byte, error) {
	return qrcode.Encode(q.Link(slug), qrcode.Medium, q.size)
}
