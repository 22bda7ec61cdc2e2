package audit

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"net/netip"
	"strconv"
)

// Linux address family numbers as they appear in saddr blobs. These are the
// kernel's values, independent of the platform decoding the log.
const (
	afUnix  = 1
	afInet  = 2
	afInet6 = 10
)

// ErrUnsupportedFamily is returned by DecodeSockaddr for families it does not decode.
var ErrUnsupportedFamily = errors.New("unsupported address family")

// DecodeSockaddr decodes the raw saddr= hex blob of a SOCKADDR record into the
// field names used by the enriched "{ ... }" block: saddr_fam, laddr, lport and path.
//
// The family is stored in host byte order; audit logs come from little-endian
// machines in practice, which is what this assumes. The port is in network order.
func DecodeSockaddr(saddr string) (map[string]string, error) {
	raw, err := hex.DecodeString(saddr)
	if err != nil {
		return nil, fmt.Errorf("decoding saddr: %w", err)
	}
	if len(raw) < 2 {
		return nil, fmt.Errorf("saddr too short: %d bytes", len(raw))
	}

	family := binary.LittleEndian.Uint16(raw[:2])
	switch family {
	case afUnix:
		return decodeUnix(raw[2:]), nil
	case afInet:
		if len(raw) < 8 {
			return nil, fmt.Errorf("inet saddr too short: %d bytes", len(raw))
		}
		addr := netip.AddrFrom4([4]byte(raw[4:8]))
		return map[string]string{
			"saddr_fam": "inet",
			"laddr":     addr.String(),
			"lport":     strconv.Itoa(int(binary.BigEndian.Uint16(raw[2:4]))),
		}, nil
	case afInet6:
		if len(raw) < 24 {
			return nil, fmt.Errorf("inet6 saddr too short: %d bytes", len(raw))
		}
		addr := netip.AddrFrom16([16]byte(raw[8:24]))
		return map[string]string{
			"saddr_fam": "inet6",
			"laddr":     addr.String(),
			"lport":     strconv.Itoa(int(binary.BigEndian.Uint16(raw[2:4]))),
		}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedFamily, family)
	}
}

func decodeUnix(path []byte) map[string]string {
	fields := map[string]string{"saddr_fam": "local"}

	// Abstract sockets start with a NUL byte.
	if len(path) > 0 && path[0] == 0 {
		fields["path"] = "@" + string(bytes.TrimRight(path[1:], "\x00"))
		return fields
	}
	if i := bytes.IndexByte(path, 0); i >= 0 {
		path = path[:i]
	}
	fields["path"] = string(path)
	return fields
}
