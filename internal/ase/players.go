package ase

import (
	"strings"

	"github.com/rs/zerolog"
)

type playerState uint8

const (
	awaitPrefix playerState = iota
	readName
	skipTeamAndSkin
	readScore
	readPing
	skipTime
)

var playerStateNames = [...]string{
	awaitPrefix:     "await_prefix",
	readName:        "read_name",
	skipTeamAndSkin: "skip_team_and_skin",
	readScore:       "read_score",
	readPing:        "read_ping",
	skipTime:        "skip_time",
}

func (s playerState) String() string { return playerStateNames[s] }

// ValidPlayerPrefix reports whether every bit set in b is part of PlayerPrefixMask.
func ValidPlayerPrefix(b byte) bool {
	return b&PlayerPrefixMask == b
}

// DecodePlayers consumes player records until the buffer ends, a prefix byte
// falls outside the mask, or a record is cut short. Records decoded before the
// stop are always returned.
func DecodePlayers(r *Reader, logger *zerolog.Logger) ([]Player, StopReason) {
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}

	var (
		players []Player
		cur     Player
		state   = awaitPrefix
		start   int
	)

	stop := func(reason StopReason) ([]Player, StopReason) {
		logger.Debug().
			Str("stage", "decode_stopped").
			Stringer("reason", reason).
			Stringer("state", state).
			Int("offset", r.Offset()).
			Int("players", len(players)).
			Msg("Player section ended")
		return players, reason
	}

	for {
		switch state {
		case awaitPrefix:
			prefix, ok := r.Peek()
			if !ok {
				return stop(StopExhausted)
			}
			if !ValidPlayerPrefix(prefix) {
				return stop(StopInvalidPrefix)
			}
			start = r.Offset()
			_, _ = r.Byte()
			cur = Player{}
			state = readName

		case readName:
			name, err := r.Field()
			if err != nil {
				return stop(StopTruncatedRecord)
			}
			cur.Name = strings.TrimRight(name, "\x00")
			state = skipTeamAndSkin

		case skipTeamAndSkin:
			if err := r.Skip(2); err != nil {
				return stop(StopTruncatedRecord)
			}
			state = readScore

		case readScore:
			score, err := r.Field()
			if err != nil {
				return stop(StopTruncatedRecord)
			}
			cur.Score = lenientInt(score)
			state = readPing

		case readPing:
			ping, err := r.Field()
			if err != nil {
				return stop(StopTruncatedRecord)
			}
			cur.Ping = lenientInt(ping)
			state = skipTime

		case skipTime:
			if err := r.Skip(1); err != nil {
				return stop(StopTruncatedRecord)
			}
			players = append(players, cur)
			logger.Trace().
				Str("stage", "player_decoded").
				Int("index", len(players)-1).
				Int("offset", start).
				Str("name", cur.Name).
				Int("score", cur.Score).
				Int("ping", cur.Ping).
				Msg("Player decoded")
			state = awaitPrefix
		}
	}
}
