package validate

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/fleshka4/dex-bridge/internal/apperrors"
	"github.com/fleshka4/dex-bridge/internal/routing"
	"github.com/fleshka4/dex-bridge/internal/service/dto"
)

// RoutesRequestValidate validates business logic request.
func RoutesRequestValidate(req dto.RoutesRequest) error {
	args := req.Args

	if args.TokenInAddress == "" || args.TokenOutAddress == "" {
		return errors.Wrap(apperrors.ErrInvalidArgument, "token address cannot be empty")
	}

	if args.TokenInChainID == 0 || args.TokenOutChainID == 0 {
		return errors.Wrap(apperrors.ErrInvalidArgument, "chain id cannot be zero")
	}

	if args.TokenInChainID == args.TokenOutChainID && strings.EqualFold(args.TokenInAddress, args.TokenOutAddress) {
		return errors.Wrap(apperrors.ErrInvalidArgument, "output token cannot be the same as input token")
	}

	switch args.TradeType {
	case "", routing.ExactInput, routing.ExactOutput:
	default:
		return errors.Wrapf(apperrors.ErrInvalidArgument, "unknown trade type %q", args.TradeType)
	}

	for i, route := range req.Routes {
		if len(route) == 0 {
			return errors.Wrapf(apperrors.ErrInvalidArgument, "route %d has no pools", i)
		}
	}

	return nil
}
