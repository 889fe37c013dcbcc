package secure

import (
	"context"

	"go.uber.org/zap"
)

// DevViewer is a stand-in secure viewer for environments without the native
// component. It accepts every request and logs only the cardID — never the
// payload, token, or signature.
type DevViewer struct {
	logger *zap.Logger
}

func NewDevViewer(logger *zap.Logger) *DevViewer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DevViewer{logger: logger}
}

func (v *DevViewer) Open(_ context.Context, req ViewRequest) error {
	v.logger.Info("secure view opened",
		zap.String("card_id", req.CardID),
		zap.Duration("timeout", req.Config.Timeout),
		zap.String("theme", req.Config.Theme),
	)
	return nil
}

func (v *DevViewer) Available(_ context.Context) (bool, error) {
	return true, nil
}
