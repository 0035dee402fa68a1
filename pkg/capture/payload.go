/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: payload.go
Description: Application-layer payload extraction for captured network frames.
Walks Ethernet (with an optional VLAN tag), IPv4/IPv6, and the transport or
extension header chain to locate the payload byte range. Pure function of the
header bytes; never reads past the captured frame length.
*/

package capture

import "encoding/binary"

// Link-layer and network-layer constants
const (
	etherHeaderLen     = 14
	etherVLANHeaderLen = 18

	etherTypeVLAN = 0x8100
	etherTypeIPv4 = 0x0800
	etherTypeIPv6 = 0x86dd

	ipv4HeaderLen = 20
	ipv6HeaderLen = 40

	protoICMP      = 1
	protoIPIP      = 4
	protoTCP       = 6
	protoUDP       = 17
	protoIPv6Encap = 41
	protoFragment  = 44
	protoESP       = 50
	protoICMPv6    = 58

	tcpHeaderMinLen = 20
	udpHeaderLen    = 8
	icmpHeaderLen   = 8
	icmp6HeaderLen  = 8
	fragHeaderLen   = 8
	espHeaderLen    = 8
)

// Payload returns the offset and length of the application-layer payload
// within a captured frame, or ok=false if none can be determined. Truncated
// captures and unknown protocols are both treated as "no payload" rather than
// reading out of bounds.
func Payload(frame []byte) (offset, length int, ok bool) {
	caplen := len(frame)
	if caplen < etherHeaderLen {
		return 0, 0, false
	}
	etherType := int(binary.BigEndian.Uint16(frame[12:14]))
	offset = etherHeaderLen
	if etherType == etherTypeVLAN {
		if caplen < etherVLANHeaderLen {
			return 0, 0, false
		}
		etherType = int(binary.BigEndian.Uint16(frame[16:18]))
		offset = etherVLANHeaderLen
	}

	var proto int
	switch etherType {
	case etherTypeIPv4:
		if offset+ipv4HeaderLen > caplen {
			return 0, 0, false
		}
		proto = int(frame[offset+9])
		offset += ipv4HeaderLen
	case etherTypeIPv6:
		if offset+ipv6HeaderLen > caplen {
			return 0, 0, false
		}
		proto = int(frame[offset+6])
		offset += ipv6HeaderLen
	default:
		return 0, 0, false
	}

	// Resolve the transport layer, looping while the protocol is itself a
	// tunneling or extension header
	for again := true; again; {
		again = false
		switch proto {
		case protoTCP:
			if offset+tcpHeaderMinLen > caplen {
				return 0, 0, false
			}
			offset += int(frame[offset+12]>>4) * 4
		case protoUDP:
			offset += udpHeaderLen
		case protoICMP:
			offset += icmpHeaderLen
		case protoICMPv6:
			offset += icmp6HeaderLen
		case protoIPIP:
			if offset+ipv4HeaderLen > caplen {
				return 0, 0, false
			}
			proto = int(frame[offset+9])
			offset += ipv4HeaderLen
			again = true
		case protoIPv6Encap:
			if offset+ipv6HeaderLen > caplen {
				return 0, 0, false
			}
			proto = int(frame[offset+6])
			offset += ipv6HeaderLen
			again = true
		case protoFragment:
			if offset+fragHeaderLen > caplen {
				return 0, 0, false
			}
			proto = int(frame[offset])
			offset += fragHeaderLen
			again = true
		case protoESP:
			offset += espHeaderLen
		default:
			return 0, 0, false
		}
	}

	if offset >= caplen {
		return 0, 0, false
	}
	return offset, caplen - offset, true
}
