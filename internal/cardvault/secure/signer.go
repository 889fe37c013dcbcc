// Package secure holds the contracts for the trusted capabilities this
// subsystem orchestrates but does not implement: the token signing facility
// and the isolated secure viewer. Local implementations here are dev/test
// stand-ins for the hardware-backed components.
package secure

import (
	"context"
	"fmt"
	"time"
)

// SignedToken is what the signing capability hands back: an opaque token
// usable until ExpiresAt, implicitly bound to the cardID it was minted for,
// plus a detached signature over the token.
type SignedToken struct {
	Token     string
	Signature string
	ExpiresAt time.Time
}

// Signer is the signing capability. Sign may fault; a fault is fatal to the
// immediate request but never to the process.
type Signer interface {
	Sign(ctx context.Context, cardID string) (SignedToken, error)
}

// PanicError preserves a non-error panic value recovered at a capability
// boundary, so diagnostic information is not flattened into a string.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("capability panic: %v", e.Value)
}

// CallSigner invokes s.Sign with panic recovery. A recovered error value
// passes through unchanged; anything else is wrapped in PanicError.
func CallSigner(ctx context.Context, s Signer, cardID string) (tok SignedToken, err error) {
	defer func() {
		if r := recover(); r != nil {
			tok = SignedToken{}
			if e, ok := r.(error); ok {
				err = e
			} else {
				err = &PanicError{Value: r}
			}
		}
	}()
	return s.Sign(ctx, cardID)
}
