package token

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash retorna el SHA-256 hex de una credencial. Los refresh records guardan
// este hash, nunca el valor en claro; la búsqueda "por valor exacto" es por
// el hash exacto del valor presentado.
func Hash(credential string) string {
	sum := sha256.Sum256([]byte(credential))
	return hex.EncodeToString(sum[:])
}
