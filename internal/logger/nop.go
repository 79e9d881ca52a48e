package logger

import (
	"go.uber.org/zap"

	"github.com/cgcardona/Stori-sub007/sdk/contracts"
)

// NewNop returns a logger that discards everything. Used in tests and as
// the fallback when no logger option is supplied before defaults apply.
func NewNop() contracts.Logger {
	return &ZapLogger{logger: zap.NewNop(), level: zap.NewAtomicLevel()}
}
