package billpay

import (
	"github.com/blockremit/billpay/logger"
	"github.com/blockremit/billpay/metrics"
)

type Option func(*BillPay)

// WithLogger replaces the zap logger built from LOG_LEVEL.
func WithLogger(l logger.Logger) Option {
	return func(b *BillPay) {
		b.log = l
	}
}

// WithMetrics installs a metrics recorder; the default records nothing.
func WithMetrics(r metrics.Recorder) Option {
	return func(b *BillPay) {
		b.rec = r
	}
}
