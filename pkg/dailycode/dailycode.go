// Package dailycode genera el código de identidad diario de cada usuario.
//
// El código es un HOTP cuyo contador es el día calendario en la zona de referencia
// y cuya clave se deriva por usuario (HKDF-SHA256) del secreto del servidor.
// No guarda estado: validar es recalcular.
package dailycode

import (
	"crypto/sha256"
	"encoding/base32"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
	"golang.org/x/crypto/hkdf"
)

const (
	// DefaultTimezone zona que fija el límite del día.
	DefaultTimezone = "America/Bogota"
	keySize         = 20
	secondsPerDay   = 24 * 60 * 60
)

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// Generator calcula y valida códigos diarios.
type Generator struct {
	secret []byte
	loc    *time.Location
	opts   hotp.ValidateOpts
}

// New crea un generador. digits admite 6 u 8.
func New(secret, timezone string, digits int) (*Generator, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("dailycode: secreto vacío")
	}
	if timezone == "" {
		timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("dailycode: zona %q: %w", timezone, err)
	}
	var d otp.Digits
	switch digits {
	case 0, 6:
		d = otp.DigitsSix
	case 8:
		d = otp.DigitsEight
	default:
		return nil, fmt.Errorf("dailycode: dígitos no soportados: %d", digits)
	}
	return &Generator{
		secret: []byte(secret),
		loc:    loc,
		opts:   hotp.ValidateOpts{Digits: d, Algorithm: otp.AlgorithmSHA256},
	}, nil
}

// Location zona de referencia.
func (g *Generator) Location() *time.Location { return g.loc }

// Day fecha calendario (AAAA-MM-DD) de t en la zona de referencia.
func (g *Generator) Day(t time.Time) string {
	return t.In(g.loc).Format("2006-01-02")
}

func (g *Generator) counter(t time.Time) uint64 {
	y, m, d := t.In(g.loc).Date()
	return uint64(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay)
}

func (g *Generator) userKey(userID string) (string, error) {
	key := make([]byte, keySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, g.secret, nil, []byte(userID)), key); err != nil {
		return "", err
	}
	return b32.EncodeToString(key), nil
}

// Code código del usuario para el día de t.
func (g *Generator) Code(userID string, t time.Time) (string, error) {
	if userID == "" {
		return "", errors.New("dailycode: usuario vacío")
	}
	key, err := g.userKey(userID)
	if err != nil {
		return "", fmt.Errorf("dailycode: derivar clave: %w", err)
	}
	return hotp.GenerateCodeCustom(key, g.counter(t), g.opts)
}

// Validate recalcula el código del día de t y compara en tiempo constante.
func (g *Generator) Validate(userID, code string, t time.Time) bool {
	code = strings.TrimSpace(code)
	if userID == "" || code == "" {
		return false
	}
	key, err := g.userKey(userID)
	if err != nil {
		return false
	}
	ok, err := hotp.ValidateCustom(code, g.counter(t), key, g.opts)
	return err == nil && ok
}
