package booking

import (
	"crypto/sha256"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

const (
	// BookingIDDigits sizes guest-facing booking numbers.
	BookingIDDigits = 10
	// PaymentIDDigits sizes payment references; wider to keep collisions
	// negligible at payment volume.
	PaymentIDDigits = 15
)

// NumericID derives a fixed-width decimal id from a fresh random UUID:
// SHA-256 of the UUID, read as a big integer, reduced modulo 10^digits and
// zero-padded. Short enough to read over the phone, random enough to not
// collide at expected volume. Callers that need a hard uniqueness guarantee
// retry against their store on a duplicate.
func NumericID(digits int) string {
	sum := sha256.Sum256([]byte(uuid.NewString()))
	n := new(big.Int).SetBytes(sum[:])
	mod := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n.Mod(n, mod)
	return fmt.Sprintf("%0*d", digits, n)
}
