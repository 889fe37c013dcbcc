package secure

import (
	"context"
	"time"

	"github.com/jlrojas/cardvault/internal/cardvault/types"
)

// ViewConfig is the display policy passed to the secure viewer.
type ViewConfig struct {
	Timeout          time.Duration
	BlockScreenshots bool
	RequireBiometric bool
	BlurOnBackground bool
	Theme            string
}

// DefaultViewConfig matches the production display policy for sensitive
// card data.
func DefaultViewConfig() ViewConfig {
	return ViewConfig{
		Timeout:          60 * time.Second,
		BlockScreenshots: true,
		RequireBiometric: false,
		BlurOnBackground: true,
		Theme:            "dark",
	}
}

// ViewRequest carries everything the secure viewer needs for one rendering
// session. The payload lives only inside this call.
type ViewRequest struct {
	CardID    string
	Token     string
	Signature string
	Payload   types.SecureCardPayload
	Config    ViewConfig
}

// Viewer is the isolated component that renders sensitive card data outside
// this subsystem's control.
type Viewer interface {
	Open(ctx context.Context, req ViewRequest) error
	Available(ctx context.Context) (bool, error)
}

// CallViewer invokes v.Open with panic recovery, mirroring CallSigner.
func CallViewer(ctx context.Context, v Viewer, req ViewRequest) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
			} else {
				err = &PanicError{Value: r}
			}
		}
	}()
	return v.Open(ctx, req)
}
