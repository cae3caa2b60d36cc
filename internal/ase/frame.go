package ase

import (
	"bytes"
	"fmt"
)

// Decode stages, used in errors and stage events.
const (
	StageTransport = "transport"
	StageFrame     = "frame"
	StageMetadata  = "metadata"
	StageRules     = "rules"
	StagePlayers   = "players"
)

// ValidateFrame checks the reply length, the header tag (when the variant has one)
// and the game identifier. It returns a reader positioned after the game field.
// A game field that runs past the buffer is TruncatedField, not GameMismatch.
func ValidateFrame(buf []byte, v Variant) (*Reader, error) {
	if len(buf) < MinReplyLength {
		return nil, fail(KindShortResponse, StageFrame, 0,
			fmt.Sprintf("%d bytes, need at least %d", len(buf), MinReplyLength))
	}

	r := NewReader(buf)
	if v.HasHeader() {
		tag, err := r.Bytes(len(v.Header))
		if err != nil || !bytes.Equal(tag, v.Header) {
			return nil, fail(KindInvalidHeader, StageFrame, 0, fmt.Sprintf("got %q", tag))
		}
	}

	at := r.Offset()
	game, err := r.Field()
	if err != nil {
		return nil, restage(err, StageFrame)
	}
	if game != GameID {
		return nil, fail(KindGameMismatch, StageFrame, at, fmt.Sprintf("got %q", game))
	}

	return r, nil
}
