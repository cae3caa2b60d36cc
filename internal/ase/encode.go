package ase

import (
	"strconv"
)

// maxFieldContent is the longest content a single length byte can describe.
const maxFieldContent = 254

// Rule is one key/value pair of the rules section. An empty key encodes to the
// same byte as RulesSentinel and ends the section early.
type Rule struct {
	Key   string
	Value string
}

// Builder encodes replies in the wire layout a server produces. It backs the
// fake responder and the decoder tests.
type Builder struct {
	Variant Variant
	Game    string
	Server  ServerInfo
	Rules   []Rule
	Players []Player

	// Prefix is written before every player record. Zero means the full mask.
	Prefix byte
}

// AppendField appends a length-prefixed field. Content over 254 bytes is cut.
func AppendField(dst []byte, s string) []byte {
	if len(s) > maxFieldContent {
		s = s[:maxFieldContent]
	}
	dst = append(dst, byte(len(s)+1))
	return append(dst, s...)
}

// Bytes renders the reply datagram.
func (b *Builder) Bytes() []byte {
	game := b.Game
	if game == "" {
		game = GameID
	}
	prefix := b.Prefix
	if prefix == 0 {
		prefix = PlayerPrefixMask
	}

	out := make([]byte, 0, 64+len(b.Players)*24)
	out = append(out, b.Variant.Header...)
	out = AppendField(out, game)

	passworded := "0"
	if b.Server.Passworded {
		passworded = "1"
	}
	for _, f := range [MetadataFields]string{
		strconv.Itoa(b.Server.Port),
		b.Server.Name,
		b.Server.GameMode,
		b.Server.Map,
		b.Server.Version,
		passworded,
		strconv.Itoa(b.Server.Players),
		strconv.Itoa(b.Server.MaxPlayers),
	} {
		out = AppendField(out, f)
	}

	for _, r := range b.Rules {
		out = AppendField(out, r.Key)
		out = AppendField(out, r.Value)
	}
	out = append(out, RulesSentinel)

	for _, p := range b.Players {
		out = AppendPlayer(out, prefix, p)
	}

	return out
}

// AppendPlayer appends one player record: prefix, name, team, skin, score, ping, time.
// Team, skin and time are written as empty fields, the way MTA sends them.
func AppendPlayer(dst []byte, prefix byte, p Player) []byte {
	dst = append(dst, prefix)
	dst = AppendField(dst, p.Name)
	dst = append(dst, 0x01, 0x01)
	dst = AppendField(dst, strconv.Itoa(p.Score))
	dst = AppendField(dst, strconv.Itoa(p.Ping))
	return append(dst, 0x01)
}
