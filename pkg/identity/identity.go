// Package identity derives stable identifiers from human readable names.
package identity

import (
	"crypto/md5"
	"encoding/binary"

	"github.com/google/uuid"
)

// Identifier is implemented by anything addressed by name: services and pools.
type Identifier interface {
	// Name returns the readable name.
	Name() string

	// UniqueID returns the name-based UUID, see UniqueID.
	UniqueID() uuid.UUID

	// NumericalID returns the folded UUID, see NumericalID.
	NumericalID() int32
}

// UniqueID returns the version 3 (MD5) UUID of the raw name bytes. No namespace
// is mixed in, so the id depends on the name alone.
func UniqueID(name string) uuid.UUID {
	sum := md5.Sum([]byte(name))
	sum[6] = sum[6]&0x0f | 0x30
	sum[8] = sum[8]&0x3f | 0x80
	return uuid.UUID(sum)
}

// NumericalID folds a UUID into 32 bits by xoring its two 64-bit halves and
// then the two words of the result.
func NumericalID(id uuid.UUID) int32 {
	msb := binary.BigEndian.Uint64(id[:8])
	lsb := binary.BigEndian.Uint64(id[8:])
	hilo := msb ^ lsb
	return int32(hilo>>32) ^ int32(uint32(hilo))
}

// Named is an embeddable Identifier backed by a fixed name.
type Named string

func (n Named) Name() string { return string(n) }

func (n Named) UniqueID() uuid.UUID { return UniqueID(string(n)) }

func (n Named) NumericalID() int32 { return NumericalID(n.UniqueID()) }
