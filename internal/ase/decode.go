package ase

import (
	"github.com/rs/zerolog"
)

// Decode runs the full decode pipeline over one reply datagram.
// Failures before the player section are returned as *Error; the player
// section itself never fails and yields whatever records it could read.
func Decode(buf []byte, v Variant, logger *zerolog.Logger) (*Result, error) {
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}

	r, err := ValidateFrame(buf, v)
	if err != nil {
		return nil, err
	}
	logger.Debug().
		Str("stage", "frame_validated").
		Str("variant", v.Name).
		Int("bytes", len(buf)).
		Int("offset", r.Offset()).
		Msg("Reply frame validated")

	info, rules, err := SkipMetadataAndRules(r)
	if err != nil {
		return nil, err
	}
	logger.Debug().
		Str("stage", "metadata_skipped").
		Str("server", info.Name).
		Int("players_declared", info.Players).
		Msg("Server metadata skipped")
	logger.Debug().
		Str("stage", "rules_skipped").
		Int("rules", rules).
		Int("offset", r.Offset()).
		Msg("Rules section skipped")

	players, stop := DecodePlayers(r, logger)

	return Assemble(info, players, AssembleInfo{
		Variant: v.Name,
		Rules:   rules,
		Bytes:   len(buf),
		Stop:    stop,
	}), nil
}

// AssembleInfo carries decode diagnostics into the result.
type AssembleInfo struct {
	Variant string
	Rules   int
	Bytes   int
	Stop    StopReason
}

// Assemble wraps the decoded players into a successful result. Every decoder
// stop reason is a normal termination at this layer.
func Assemble(info ServerInfo, players []Player, diag AssembleInfo) *Result {
	return &Result{
		Server:  info,
		Roster:  NewRoster(players),
		Variant: diag.Variant,
		Rules:   diag.Rules,
		Bytes:   diag.Bytes,
		Stop:    diag.Stop,
	}
}
