package grpcvault

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"xdao.co/ldcs/vault"
)

func mapRPC(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.NotFound:
		return vault.ErrNotFound
	case codes.InvalidArgument:
		// Server uses InvalidArgument for malformed/undefined CIDs.
		return vault.ErrInvalidCID
	case codes.DataLoss:
		// Server uses DataLoss when bytes do not match the requested CID.
		return vault.ErrCIDMismatch
	default:
		// Best-effort: if the server sent a known vault error message, preserve it.
		switch st.Message() {
		case vault.ErrNotFound.Error():
			return vault.ErrNotFound
		case vault.ErrInvalidCID.Error():
			return vault.ErrInvalidCID
		case vault.ErrCIDMismatch.Error():
			return vault.ErrCIDMismatch
		default:
			return err
		}
	}
}
