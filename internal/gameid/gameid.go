// Package gameid mints the identifiers used across the server. Hands,
// rooms and server instances share the same shape: a short kind prefix
// followed by a 26-character Crockford base32 encoding of a UUIDv7, so ids
// of one kind sort by creation time and the kind is readable in logs.
package gameid

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"
)

// Crockford base32, lowercase. No i, l, o or u, so ids survive being read
// aloud or retyped.
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// coreLen is the encoded length of the 128-bit UUID.
const coreLen = 26

// Kind names the entity an id identifies and supplies its prefix.
type Kind string

const (
	// Game ids name a single hand.
	Game Kind = "game"

	// Room ids name a table; private rooms keep their client-chosen name
	// instead.
	Room Kind = "room"

	// Server ids name one server instance for the connect ack.
	Server Kind = "srv"
)

// NewGame mints an id for a hand.
func NewGame() string { return New(Game) }

// NewRoom mints an id for a public room.
func NewRoom() string { return New(Room) }

// NewServer mints an id for a server instance.
func NewServer() string { return New(Server) }

// New mints an id of the given kind.
func New(kind Kind) string {
	return string(kind) + "-" + encode(uuidv7())
}

// Validate checks that id carries the kind's prefix and a well-formed
// core.
func Validate(id string, kind Kind) error {
	prefix := string(kind) + "-"
	if !strings.HasPrefix(id, prefix) {
		return fmt.Errorf("id %q does not carry the %q prefix", id, kind)
	}
	core := id[len(prefix):]
	if len(core) != coreLen {
		return fmt.Errorf("id core must be %d characters, got %d", coreLen, len(core))
	}
	// The first character encodes the top five bits of a 128-bit value
	// padded to 130, so it never exceeds '7'.
	if core[0] > '7' {
		return fmt.Errorf("id core must start with 0-7, got %c", core[0])
	}
	for i := 0; i < len(core); i++ {
		if !strings.ContainsRune(alphabet, rune(core[i])) {
			return fmt.Errorf("invalid character %c at position %d", core[i], i)
		}
	}
	return nil
}

// uuidv7 builds a version 7 UUID: 48 bits of millisecond timestamp, then
// random bits with the version and variant fields overwritten.
func uuidv7() [16]byte {
	var u [16]byte
	now := time.Now().UnixMilli()
	for i := 0; i < 6; i++ {
		u[i] = byte(now >> (40 - 8*i))
	}
	if _, err := rand.Read(u[6:]); err != nil {
		panic("gameid: reading random bytes: " + err.Error())
	}
	u[6] = (u[6] & 0x0f) | 0x70
	u[8] = (u[8] & 0x3f) | 0x80
	return u
}

// encode packs the UUID big-endian into base32, five bits per character.
// 128 bits leave a 3-bit remainder, which pads with zeros into the final
// character.
func encode(u [16]byte) string {
	var out [coreLen]byte
	acc, bits, j := uint(0), 0, 0
	for _, b := range u {
		acc = acc<<8 | uint(b)
		bits += 8
		for bits >= 5 {
			bits -= 5
			out[j] = alphabet[(acc>>bits)&0x1f]
			j++
		}
	}
	out[j] = alphabet[(acc<<(5-bits))&0x1f]
	return string(out[:])
}
