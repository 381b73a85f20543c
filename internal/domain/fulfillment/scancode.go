package fulfillment

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/width"
)

// Alfabeto Crockford (sin I, L, O, U) para que el código impreso se lea sin ambigüedad.
const scanAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

const scanRandomLen = 8

// MintScanCode genera un código de escaneo del tipo ENT-261016-7K3QX9PM.
// La unicidad la garantiza el índice único; ante colisión el llamador vuelve a generar.
func MintScanCode(now time.Time, rnd io.Reader) (string, error) {
	if rnd == nil {
		rnd = rand.Reader
	}
	buf := make([]byte, scanRandomLen)
	if _, err := io.ReadFull(rnd, buf); err != nil {
		return "", fmt.Errorf("generar código de escaneo: %w", err)
	}
	var sb strings.Builder
	sb.WriteString("ENT-")
	sb.WriteString(now.Format("060102"))
	sb.WriteByte('-')
	for _, b := range buf {
		sb.WriteByte(scanAlphabet[int(b)%len(scanAlphabet)])
	}
	return sb.String(), nil
}

// NormalizeScanCode limpia lo que entrega un lector o teclado: caracteres de ancho completo,
// minúsculas y espacios.
func NormalizeScanCode(raw string) string {
	s := width.Narrow.String(raw)
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.ReplaceAll(s, " ", "")
}
