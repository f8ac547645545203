package qrcode

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	goqrcode "github.com/skip2/go-qrcode"
)

const (
	// CodeLength is the number of random characters closing every payload.
	CodeLength = 28
	// DefaultSize is the PNG edge length in pixels.
	DefaultSize = 256

	codeAlphabet     = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_~.="
	fallbackTrigram  = "XXX"
	missingComponent = "0"
)

// RandomCode returns n characters drawn uniformly from the payload alphabet
// using crypto/rand.
func RandomCode(n int) (string, error) {
	return randomCode(rand.Reader, n)
}

// randomCode discards bytes at or above the largest multiple of the alphabet
// size so every symbol is equally likely.
func randomCode(src io.Reader, n int) (string, error) {
	limit := 256 - 256%len(codeAlphabet)
	out := make([]byte, 0, n)
	buf := make([]byte, n+n/2)
	for len(out) < n {
		if _, err := io.ReadFull(src, buf); err != nil {
			return "", fmt.Errorf("reading random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, codeAlphabet[int(b)%len(codeAlphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}

// TicketPayload builds "<TRIGRAM>-<stage|0>-<package|0>-<box|0>-<code>".
func TicketPayload(trigram string, stageID, packageID, boxID *uuid.UUID) (string, error) {
	code, err := RandomCode(CodeLength)
	if err != nil {
		return "", err
	}
	return strings.Join([]string{
		normalizeTrigram(trigram),
		component(stageID),
		component(packageID),
		component(boxID),
		code,
	}, "-"), nil
}

// SpecialPayload builds "<TRIGRAM>-<code>" for courtesy tickets.
func SpecialPayload(trigram string) (string, error) {
	code, err := RandomCode(CodeLength)
	if err != nil {
		return "", err
	}
	return normalizeTrigram(trigram) + "-" + code, nil
}

// ValidTrigram reports whether s is exactly three letters.
func ValidTrigram(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

// PNG renders content as a QR image of size x size pixels.
func PNG(content string, size int) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("qr content is required")
	}
	if size <= 0 {
		size = DefaultSize
	}
	png, err := goqrcode.Encode(content, goqrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encoding qr: %w", err)
	}
	return png, nil
}

func normalizeTrigram(s string) string {
	if !ValidTrigram(s) {
		return fallbackTrigram
	}
	return strings.ToUpper(s)
}

func component(id *uuid.UUID) string {
	if id == nil || *id == uuid.Nil {
		return missingComponent
	}
	return id.String()
}
