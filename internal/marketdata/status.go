package marketdata

import (
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"optionsgateway/internal/provider"
)

// HTTPStatus maps err to the status a transport layer should answer with.
func HTTPStatus(err error) int {
	var se *ServiceError
	if !errors.As(err, &se) {
		return http.StatusInternalServerError
	}
	switch se.Type {
	case provider.ErrRateLimit:
		return http.StatusTooManyRequests
	case provider.ErrAuth:
		return http.StatusUnauthorized
	case provider.ErrNetwork, provider.ErrHTTP:
		return http.StatusBadGateway
	case provider.ErrValidation:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// GRPCCode is the RPC counterpart of HTTPStatus.
func GRPCCode(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	var se *ServiceError
	if !errors.As(err, &se) {
		return codes.Unknown
	}
	switch se.Type {
	case provider.ErrRateLimit:
		return codes.ResourceExhausted
	case provider.ErrAuth:
		return codes.Unauthenticated
	case provider.ErrParse:
		return codes.Internal
	case provider.ErrNetwork, provider.ErrHTTP:
		return codes.Unavailable
	case provider.ErrValidation:
		return codes.Unimplemented
	default:
		return codes.Unknown
	}
}

// GRPCStatus builds the status an RPC handler should return for err.
func GRPCStatus(err error) *status.Status {
	if err == nil {
		return status.New(codes.OK, "")
	}
	return status.New(GRPCCode(err), err.Error())
}
