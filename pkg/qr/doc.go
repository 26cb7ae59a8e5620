// Package qr renders public verification links as QR code images.
package qr
