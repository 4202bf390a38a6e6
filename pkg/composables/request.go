package composables

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/buildgrid-io/buildgrid/pkg/constants"
)

// UseLogger returns the logger from the context.
// If the logger is not found, function will panic.
func UseLogger(ctx context.Context) *logrus.Entry {
	logger := ctx.Value(constants.LoggerKey)
	if logger == nil {
		panic("logger not found")
	}
	return logger.(*logrus.Entry)
}

// TryUseLogger attempts to fetch the logger without panicking.
func TryUseLogger(ctx context.Context) (*logrus.Entry, bool) {
	logger, ok := ctx.Value(constants.LoggerKey).(*logrus.Entry)
	return logger, ok
}

func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	return context.WithValue(ctx, constants.LoggerKey, logger)
}
