package api

import (
	"context"
	"errors"

	"commerce-service-go/internal/models"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const internalErrorDetail = "internal server error"

var invalidArgumentErrs = []error{
	models.ErrInvalidInput,
	models.ErrInvalidTransition,
	models.ErrMissingReason,
	models.ErrDuplicateItem,
	models.ErrItemLimitExceeded,
	models.ErrShareLimitExceeded,
	models.ErrNotRefundable,
}

// toStatus maps a domain error to a gRPC status. Unclassified errors are
// logged here and reach the caller only as a generic INTERNAL.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, models.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, models.ErrVersionConflict):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	for _, target := range invalidArgumentErrs {
		if errors.Is(err, target) {
			return status.Error(codes.InvalidArgument, err.Error())
		}
	}

	zap.L().Error("Request failed", zap.Error(err))
	return status.Error(codes.Internal, internalErrorDetail)
}
