package chimu

import (
	"fmt"
	"hash/crc32"
	"sort"
)

// Checksum computes the trailing integrity byte of a frame. It is given
// every byte from the first sync byte to the end of the payload.
type Checksum interface {
	Sum(frame []byte) byte
}

// ChecksumFunc is func type of Checksum.
type ChecksumFunc func([]byte) byte

// Sum implements Checksum.
func (f ChecksumFunc) Sum(frame []byte) byte {
	return f(frame)
}

var (
	// CRC32 takes the low byte of the IEEE CRC-32 of the frame.
	CRC32 = ChecksumFunc(func(b []byte) byte {
		return byte(crc32.ChecksumIEEE(b))
	})

	// Sum8 is the 8-bit additive sum of the frame.
	Sum8 = ChecksumFunc(func(b []byte) byte {
		var s byte
		for _, c := range b {
			s += c
		}
		return s
	})

	// Xor8 is the XOR of all frame bytes.
	Xor8 = ChecksumFunc(func(b []byte) byte {
		var s byte
		for _, c := range b {
			s ^= c
		}
		return s
	})

	// Legacy always yields zero. Firmware built without checksum support
	// sends zero in the checksum position.
	Legacy = ChecksumFunc(func([]byte) byte { return 0 })
)

// DefaultChecksum is used when no checksum is configured.
var DefaultChecksum Checksum = CRC32

var checksums = map[string]Checksum{
	"crc32":  CRC32,
	"sum8":   Sum8,
	"xor8":   Xor8,
	"legacy": Legacy,
}

// ChecksumByName looks up a checksum by its configuration name.
func ChecksumByName(name string) (Checksum, error) {
	if name == "" {
		return DefaultChecksum, nil
	}
	if c, ok := checksums[name]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("unknown checksum %q", name)
}

// ChecksumNames lists the names accepted by ChecksumByName.
func ChecksumNames() []string {
	names := make([]string, 0, len(checksums))
	for name := range checksums {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
