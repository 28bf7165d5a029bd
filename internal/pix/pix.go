// Package pix validates PIX payment keys by shape and builds static BR Code
// payloads and QR images for them. Keys are never checked for existence.
package pix

import (
	"fmt"
	"regexp"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

type KeyType string

const (
	KeyCPF    KeyType = "CPF"
	KeyCNPJ   KeyType = "CNPJ"
	KeyPhone  KeyType = "Celular"
	KeyEmail  KeyType = "E-mail"
	KeyRandom KeyType = "Chave Aleatória"
	KeyOther  KeyType = "Chave PIX"
)

var (
	// CPF (11 digits), CNPJ (14 digits), random key (UUID) or e-mail.
	keyRe = regexp.MustCompile(`^(\d{11}|\d{14}|[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}|[\w._%+-]+@[\w.-]+\.[a-zA-Z]{2,})$`)

	cpfRe   = regexp.MustCompile(`^\d{11}$`)
	cnpjRe  = regexp.MustCompile(`^\d{14}$`)
	uuidRe  = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	emailRe = regexp.MustCompile(`^[\w._%+-]+@[\w.-]+\.[a-zA-Z]{2,}$`)
	phoneRe = regexp.MustCompile(`^\+?55\d{11}$`)
)

// Valid reports whether key has one of the accepted PIX shapes.
func Valid(key string) bool {
	return keyRe.MatchString(strings.TrimSpace(key))
}

// ValidLoose additionally accepts +55 phone numbers, matching the standalone
// key-to-QR command.
func ValidLoose(key string) bool {
	key = strings.TrimSpace(key)
	return keyRe.MatchString(key) || phoneRe.MatchString(key)
}

func DetectType(key string) KeyType {
	key = strings.TrimSpace(key)
	switch {
	case cpfRe.MatchString(key):
		return KeyCPF
	case cnpjRe.MatchString(key):
		return KeyCNPJ
	case phoneRe.MatchString(stripNonDigitsKeepPlus(key)):
		return KeyPhone
	case emailRe.MatchString(key):
		return KeyEmail
	case uuidRe.MatchString(key):
		return KeyRandom
	}
	return KeyOther
}

func stripNonDigitsKeepPlus(key string) string {
	var b strings.Builder
	for i, r := range key {
		if r >= '0' && r <= '9' || (r == '+' && i == 0) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Payload builds the static BR Code string for a key.
func Payload(key string) string {
	return fmt.Sprintf("00020126580014BR.GOV.BCB.PIX0136%s5204000053039865802BR5920Recebedor6009SAO PAULO62070503***6304", key)
}

// QRPNG renders the BR Code for key as a PNG.
func QRPNG(key string) ([]byte, error) {
	png, err := qrcode.Encode(Payload(key), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to encode pix qr code: %w", err)
	}
	return png, nil
}
