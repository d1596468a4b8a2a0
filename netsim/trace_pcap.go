// Copyright (c) 2026, The VNetSim Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package netsim

import (
	"encoding/binary"
	"net/netip"
	"os"
)

// pcapWriter mirrors a Trace to a pcap capture file. The link-layer type
// is DLT_RAW, and each frame is a synthesized minimal IPv4/UDP packet
// carrying the datagram's real payload, so a capture opens and decodes in
// any standard packet-analysis tool.
type pcapWriter struct {
	fd *os.File
}

const (
	pcapMagicNumber  = 0xA1B2C3D4
	pcapVersionMajor = 2
	pcapVersionMinor = 4
	dltRaw           = 101

	pcapFileHeaderSize  = 24
	pcapFrameHeaderSize = 16
)

func newPcapWriter(filename string) (*pcapWriter, error) {
	fd, err := os.OpenFile(filename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	w := &pcapWriter{fd: fd}
	if err := w.writeHeader(); err != nil {
		_ = w.Close()
		return nil, err
	}
	return w, nil
}

func (w *pcapWriter) writeHeader() error {
	var header [pcapFileHeaderSize]byte
	binary.LittleEndian.PutUint32(header[:4], pcapMagicNumber)
	binary.LittleEndian.PutUint16(header[4:6], pcapVersionMajor)
	binary.LittleEndian.PutUint16(header[6:8], pcapVersionMinor)
	binary.LittleEndian.PutUint32(header[8:12], 0)
	binary.LittleEndian.PutUint32(header[12:16], 0)
	binary.LittleEndian.PutUint32(header[16:20], 65535)
	binary.LittleEndian.PutUint32(header[20:24], dltRaw)
	if _, err := w.fd.Write(header[:]); err != nil {
		return err
	}
	return w.fd.Sync()
}

// writeUDP appends one frame representing entry: a dropped entry is still
// recorded (as the same packet that would have been delivered), since a
// capture is meant to show what was sent, not just what arrived.
func (w *pcapWriter) writeUDP(e TraceEntry) error {
	frame := buildIPv4UDPFrame(e.From, e.To, e.Payload)

	var header [pcapFrameHeaderSize]byte
	sec := uint32(e.Timestamp / 1_000_000_000)
	nsec := uint32(e.Timestamp % 1_000_000_000)
	binary.LittleEndian.PutUint32(header[:4], sec)
	binary.LittleEndian.PutUint32(header[4:8], nsec/1000)
	binary.LittleEndian.PutUint32(header[8:12], uint32(len(frame)))
	binary.LittleEndian.PutUint32(header[12:16], uint32(len(frame)))

	if _, err := w.fd.Write(header[:]); err != nil {
		return err
	}
	_, err := w.fd.Write(frame)
	return err
}

func (w *pcapWriter) Close() error {
	return w.fd.Close()
}

// buildIPv4UDPFrame synthesizes a minimal, valid (checksum included)
// IPv4/UDP packet so captures decode cleanly in standard tooling. The
// simulator has no real link layer, so this is purely a presentation
// format for the trace, not a wire format the simulator itself parses.
func buildIPv4UDPFrame(from, to netip.AddrPort, payload []byte) []byte {
	udpLen := 8 + len(payload)
	totalLen := 20 + udpLen

	ip := make([]byte, 20)
	ip[0] = 0x45
	ip[1] = 0
	binary.BigEndian.PutUint16(ip[2:4], uint16(totalLen))
	binary.BigEndian.PutUint16(ip[4:6], 0)
	binary.BigEndian.PutUint16(ip[6:8], 0)
	ip[8] = 64
	ip[9] = 17 // UDP
	binary.BigEndian.PutUint16(ip[10:12], 0)
	copy(ip[12:16], from.Addr().AsSlice())
	copy(ip[16:20], to.Addr().AsSlice())
	binary.BigEndian.PutUint16(ip[10:12], ipv4Checksum(ip))

	udp := make([]byte, udpLen)
	binary.BigEndian.PutUint16(udp[0:2], from.Port())
	binary.BigEndian.PutUint16(udp[2:4], to.Port())
	binary.BigEndian.PutUint16(udp[4:6], uint16(udpLen))
	binary.BigEndian.PutUint16(udp[6:8], 0)
	copy(udp[8:], payload)

	frame := make([]byte, 0, totalLen)
	frame = append(frame, ip...)
	frame = append(frame, udp...)
	return frame
}

func ipv4Checksum(header []byte) uint16 {
	var sum uint32
	for i := 0; i+1 < len(header); i += 2 {
		sum += uint32(header[i])<<8 | uint32(header[i+1])
	}
	for sum>>16 != 0 {
		sum = (sum & 0xFFFF) + (sum >> 16)
	}
	return ^uint16(sum)
}
