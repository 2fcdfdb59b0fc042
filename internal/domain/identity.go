// Package domain contains session entities without transport logic, just meta-data.
package domain

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	DefaultIdentityPrefix = "frontend-user"
	MaxIdentityLen        = 128

	RoomNamePrefix    = "room-"
	RoomNameSuffixLen = 8
)

// roomAlphabet matches base36 output, lowercase.
const roomAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

var (
	ErrIdentityEmpty   = errors.New("identity empty")
	ErrIdentityTooLong = errors.New("identity too long")
	ErrRoomNameEmpty   = errors.New("room name empty")
	ErrRoomNameInvalid = errors.New("room name invalid")
)

type RoomName string

// SessionIdentity is created once per join attempt and dropped on disconnect.
type SessionIdentity struct {
	Identity string   `json:"identity"`
	Room     RoomName `json:"room"`
}

// NewSessionIdentity builds "<prefix>-<unix ms>" paired with a fresh random room.
func NewSessionIdentity(prefix string, now time.Time) (SessionIdentity, error) {
	if prefix == "" {
		prefix = DefaultIdentityPrefix
	}
	identity := fmt.Sprintf("%s-%d", prefix, now.UnixMilli())
	if err := ValidateIdentity(identity); err != nil {
		return SessionIdentity{}, err
	}
	room, err := NewRoomName()
	if err != nil {
		return SessionIdentity{}, err
	}
	return SessionIdentity{Identity: identity, Room: room}, nil
}

func (s SessionIdentity) Validate() error {
	if err := ValidateIdentity(s.Identity); err != nil {
		return err
	}
	if s.Room == "" {
		return ErrRoomNameEmpty
	}
	return nil
}

func ValidateIdentity(identity string) error {
	if len(identity) == 0 {
		return ErrIdentityEmpty
	}
	if len(identity) > MaxIdentityLen {
		return ErrIdentityTooLong
	}
	return nil
}

// NewRoomName returns "room-" followed by 8 random base36 characters.
func NewRoomName() (RoomName, error) {
	return newRoomName(rand.Reader)
}

// newRoomName drops bytes at or above the largest multiple of the alphabet
// size so every character is equally likely.
func newRoomName(entropy io.Reader) (RoomName, error) {
	limit := byte(256 - 256%len(roomAlphabet))
	var b strings.Builder
	b.Grow(len(RoomNamePrefix) + RoomNameSuffixLen)
	b.WriteString(RoomNamePrefix)

	buf := make([]byte, RoomNameSuffixLen*2)
	for n := 0; n < RoomNameSuffixLen; {
		if _, err := io.ReadFull(entropy, buf); err != nil {
			return "", fmt.Errorf("room name entropy: %w", err)
		}
		for _, v := range buf {
			if v >= limit {
				continue
			}
			b.WriteByte(roomAlphabet[int(v)%len(roomAlphabet)])
			if n++; n == RoomNameSuffixLen {
				break
			}
		}
	}
	return RoomName(b.String()), nil
}

// Validate checks the generated format; remote parties never choose room names.
func (r RoomName) Validate() error {
	if r == "" {
		return ErrRoomNameEmpty
	}
	s := string(r)
	if !strings.HasPrefix(s, RoomNamePrefix) || len(s) != len(RoomNamePrefix)+RoomNameSuffixLen {
		return ErrRoomNameInvalid
	}
	for _, c := range s[len(RoomNamePrefix):] {
		if !strings.ContainsRune(roomAlphabet, c) {
			return ErrRoomNameInvalid
		}
	}
	return nil
}
