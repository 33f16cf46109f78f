package pdfstamp

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ApplySignatures applies reqs to input in order, each request working on
// the output of the previous one.
//
// The first failing request aborts the batch with a *SignatureError that
// names its 1-based position. Requests of unknown type are skipped with a
// warning unless the stamper rejects them. When ctx is cancelled between
// requests the output of the last completed request is returned together
// with the context error.
func (s *Stamper) ApplySignatures(ctx context.Context, input []byte, reqs []SignatureRequest) ([]byte, error) {
	if len(reqs) == 0 {
		return nil, ErrNoSignaturesProvided
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	current := input
	applied := 0

	for i, req := range reqs {
		index := i + 1

		if applied > 0 {
			if err := ctx.Err(); err != nil {
				return current, fmt.Errorf("cancelled after %d of %d signatures: %w", applied, len(reqs), err)
			}
		}

		if !req.Type.Known() {
			if s.rejectUnknownTypes {
				return nil, &SignatureError{Index: index, Type: req.Type, Err: fmt.Errorf("%w: %q", ErrUnknownSignatureType, req.Type)}
			}
			s.log.Warn("skipping signature of unknown type",
				zap.Int("index", index), zap.String("type", string(req.Type)), zap.Int("page", req.Page))
			continue
		}

		out, err := s.apply(ctx, current, req)
		if err != nil {
			return nil, &SignatureError{Index: index, Type: req.Type.Normalize(), Err: err}
		}

		current = out
		applied++
	}

	if applied == 0 {
		return nil, fmt.Errorf("%w: all %d requests were skipped", ErrNoSignaturesProvided, len(reqs))
	}
	return current, nil
}

func (s *Stamper) apply(ctx context.Context, input []byte, req SignatureRequest) ([]byte, error) {
	switch req.Type.Normalize() {
	case TypeImage:
		return s.applyImage(ctx, input, req.Data, req.X, req.Y, req.Page, req.Scale)
	case TypeText:
		return s.ApplyTextSignature(ctx, input, req.Data, req.X, req.Y, req.Page, req.Style())
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSignatureType, req.Type)
}
