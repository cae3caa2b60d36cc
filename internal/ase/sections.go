package ase

import (
	"errors"
	"strconv"
	"strings"
)

// SkipMetadataAndRules consumes the server info fields and the rules section,
// leaving r at the first player record. Metadata values are returned for display;
// rules are only counted.
func SkipMetadataAndRules(r *Reader) (ServerInfo, int, error) {
	var meta [MetadataFields]string
	for i := range meta {
		v, err := r.Field()
		if err != nil {
			return ServerInfo{}, 0, restage(err, StageMetadata)
		}
		meta[i] = v
	}
	info := serverInfo(meta)

	rules := 0
	for {
		b, ok := r.Peek()
		if !ok {
			return info, rules, fail(KindMissingSentinel, StageRules, r.Offset(), "buffer ended inside rules")
		}
		if b == RulesSentinel {
			_, _ = r.Byte()
			return info, rules, nil
		}
		if err := r.SkipField(); err != nil {
			return info, rules, restage(err, StageRules)
		}
		if err := r.SkipField(); err != nil {
			return info, rules, restage(err, StageRules)
		}
		rules++
	}
}

// serverInfo maps the metadata fields in the order MTA writes them:
// port, name, game mode, map, version, password flag, players, max players.
func serverInfo(f [MetadataFields]string) ServerInfo {
	return ServerInfo{
		Port:       lenientInt(f[0]),
		Name:       f[1],
		GameMode:   f[2],
		Map:        f[3],
		Version:    f[4],
		Passworded: lenientInt(f[5]) != 0,
		Players:    lenientInt(f[6]),
		MaxPlayers: lenientInt(f[7]),
	}
}

// lenientInt parses a decimal field, folding anything unparsable to 0.
func lenientInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(strings.TrimRight(s, "\x00")))
	if err != nil {
		return 0
	}
	return n
}

func restage(err error, stage string) error {
	var qe *Error
	if errors.As(err, &qe) {
		cp := *qe
		cp.Stage = stage
		return &cp
	}
	return err
}
