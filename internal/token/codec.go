package token

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/chambadev/chamba/internal/domain/repository"
)

// Errores del codec. Decode clasifica siempre en uno de estos cuatro.
var (
	ErrMalformed        = errors.New("token: malformed credential")
	ErrInvalidSignature = errors.New("token: invalid signature")
	ErrExpired          = errors.New("token: credential expired")
	ErrWrongClass       = errors.New("token: wrong credential class")
)

const minSecretLen = 32

// Codec codifica y decodifica credenciales firmadas (HS256).
// Es puro: sin side effects, función sólo de la entrada y los secretos.
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte

	// now se inyecta en tests para simular expiración sin dormir.
	now func() time.Time
}

// NewCodec crea un codec con un secreto por clase. Los secretos deben ser
// distintos entre sí y de al menos 32 bytes.
func NewCodec(accessSecret, refreshSecret []byte) (*Codec, error) {
	if len(accessSecret) < minSecretLen || len(refreshSecret) < minSecretLen {
		return nil, fmt.Errorf("token: secrets must be at least %d bytes", minSecretLen)
	}
	if len(accessSecret) == len(refreshSecret) &&
		subtle.ConstantTimeCompare(accessSecret, refreshSecret) == 1 {
		return nil, errors.New("token: access and refresh secrets must differ")
	}
	return &Codec{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		now:           time.Now,
	}, nil
}

func (c *Codec) secretFor(class Class) []byte {
	if class == ClassRefresh {
		return c.refreshSecret
	}
	return c.accessSecret
}

// Encode serializa el claim set, etiqueta la clase y firma con el secreto de
// esa clase. iat/exp se derivan del reloj del codec y de ttl. Si cl.ID viene
// vacío se genera un jti nuevo: iat tiene granularidad de un segundo, así que
// sin jti dos emisiones seguidas para el mismo principal producirían la misma
// credencial.
func (c *Codec) Encode(cl Claims, class Class, ttl time.Duration) (string, error) {
	id := cl.ID
	if id == "" {
		id = uuid.NewString()
	}
	now := c.now().UTC()
	mc := jwtv5.MapClaims{
		claimID:        id,
		claimSubject:   cl.Subject,
		claimRole:      string(cl.Role),
		claimClass:     string(class),
		claimIssuedAt:  now.Unix(),
		claimExpiresAt: now.Add(ttl).Unix(),
	}
	if class == ClassAccess && cl.SubscriptionExpiresAt != nil {
		mc[claimSubExpires] = cl.SubscriptionExpiresAt.Unix()
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, mc)
	return tk.SignedString(c.secretFor(class))
}

// Decode verifica firma, expiración y que la clase embebida sea expectedClass.
// Falla con ErrMalformed, ErrInvalidSignature, ErrExpired o ErrWrongClass.
func (c *Codec) Decode(tokenStr string, expectedClass Class) (*Claims, error) {
	keyfunc := func(t *jwtv5.Token) (any, error) {
		return c.secretFor(expectedClass), nil
	}
	tok, err := jwtv5.Parse(tokenStr, keyfunc,
		jwtv5.WithValidMethods([]string{"HS256"}),
		jwtv5.WithTimeFunc(c.now),
		jwtv5.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwtv5.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwtv5.ErrTokenSignatureInvalid):
			// Una credencial de la otra clase firma con otro secreto, así que
			// cae acá. Miramos la clase sin verificar sólo para clasificar el
			// error; el payload no se usa para nada más.
			if cls, ok := unverifiedClass(tokenStr); ok && cls != expectedClass {
				return nil, ErrWrongClass
			}
			return nil, ErrInvalidSignature
		default:
			return nil, ErrMalformed
		}
	}

	mc, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, ErrMalformed
	}
	cls, _ := mc[claimClass].(string)
	if Class(cls) != expectedClass {
		return nil, ErrWrongClass
	}

	out := &Claims{Class: expectedClass}
	out.ID, _ = mc[claimID].(string)
	out.Subject, _ = mc[claimSubject].(string)
	if out.Subject == "" {
		return nil, ErrMalformed
	}
	if role, ok := mc[claimRole].(string); ok {
		out.Role = repository.Role(role)
	}
	if iat, ok := mc[claimIssuedAt].(float64); ok {
		out.IssuedAt = time.Unix(int64(iat), 0).UTC()
	}
	if exp, ok := mc[claimExpiresAt].(float64); ok {
		out.ExpiresAt = time.Unix(int64(exp), 0).UTC()
	}
	if se, ok := mc[claimSubExpires].(float64); ok {
		t := time.Unix(int64(se), 0).UTC()
		out.SubscriptionExpiresAt = &t
	}
	return out, nil
}

// unverifiedClass extrae la clase del payload sin validar la firma.
func unverifiedClass(tokenStr string) (Class, bool) {
	parser := jwtv5.NewParser()
	tok, _, err := parser.ParseUnverified(tokenStr, jwtv5.MapClaims{})
	if err != nil {
		return "", false
	}
	mc, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return "", false
	}
	cls, ok := mc[claimClass].(string)
	return Class(cls), ok
}
