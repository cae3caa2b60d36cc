// Package ase implements the MTA flavour of the All-Seeing Eye server browser protocol:
// one UDP query to the game port + 123 and a single length-prefixed reply datagram that
// carries the server metadata, the rules section and the player roster.
package ase

import (
	"fmt"
	"strings"
)

// Protocol constants shared by every variant.
const (
	// QueryPortOffset is added to the game port to reach the ASE query socket.
	QueryPortOffset = 123

	// GameID is the identifier MTA servers put in the first field of the reply.
	GameID = "mta"

	// RulesSentinel closes the rules section and opens the player section.
	RulesSentinel byte = 0x01

	// PlayerPrefixMask holds every flag bit a player record prefix may carry.
	// The server ORs 0x01, 0x02, 0x04, 0x08, 0x16 and 0x32 which folds to 0x3F.
	PlayerPrefixMask byte = 0x01 | 0x02 | 0x04 | 0x08 | 0x16 | 0x32

	// MinReplyLength is the smallest reply worth decoding.
	MinReplyLength = 10

	// MetadataFields is the number of server info fields preceding the rules.
	MetadataFields = 8
)

// Variant selects the query payload and whether replies start with a header tag.
type Variant struct {
	Name   string
	Query  []byte
	Header []byte
}

var (
	// VariantTagged sends the 4 byte request tag and expects "EYE1" replies.
	VariantTagged = Variant{
		Name:   "tagged",
		Query:  []byte{0xFF, 0xFF, 0xFF, 0x01},
		Header: []byte("EYE1"),
	}

	// VariantLegacy sends a single 's' and expects replies without a header tag.
	VariantLegacy = Variant{
		Name:  "legacy",
		Query: []byte{'s'},
	}
)

// DefaultVariant is used when no variant is configured.
var DefaultVariant = VariantTagged

// ParseVariant resolves a configured variant name.
func ParseVariant(name string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", VariantTagged.Name:
		return VariantTagged, nil
	case VariantLegacy.Name:
		return VariantLegacy, nil
	default:
		return Variant{}, fmt.Errorf("unknown protocol variant %q", name)
	}
}

// HasHeader reports whether replies for this variant carry a header tag.
func (v Variant) HasHeader() bool {
	return len(v.Header) > 0
}

func (v Variant) String() string {
	return v.Name
}
