/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: source.go
Description: Traffic corpus sources for the reduction engine. Reads captured
frames from pcap files via gopacket's pure-Go pcapgo reader and exposes an
in-memory source for tests. Both implement the PacketSource contract consumed
by the frequency labeler and the accuracy validator.
*/

package capture

import (
	"io"
	"os"

	"github.com/google/gopacket/pcapgo"

	"github.com/kleascm/nfareduce/pkg/interfaces"
)

// FileSource reads captured frames from an on-disk pcap file
type FileSource struct {
	id     string
	file   *os.File
	reader *pcapgo.Reader
}

// OpenFile opens a pcap file as a packet source. A missing or corrupt file is
// an I/O error.
func OpenFile(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, interfaces.IOErrorf(err, "cannot open pcap file %q", path)
	}
	r, err := pcapgo.NewReader(f)
	if err != nil {
		f.Close()
		return nil, interfaces.IOErrorf(err, "cannot read pcap file %q", path)
	}
	return &FileSource{id: path, file: f, reader: r}, nil
}

// ID returns the source path
func (s *FileSource) ID() string {
	return s.id
}

// Next returns the next captured frame, truncated to the capture length
func (s *FileSource) Next() ([]byte, error) {
	data, _, err := s.reader.ReadPacketData()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, interfaces.IOErrorf(err, "reading pcap file %q", s.id)
	}
	return data, nil
}

// Close releases the underlying file handle
func (s *FileSource) Close() error {
	return s.file.Close()
}

// MemorySource serves frames from memory; used by tests and calibration runs
type MemorySource struct {
	id     string
	frames [][]byte
	next   int
}

// NewMemorySource creates a packet source over in-memory frames
func NewMemorySource(id string, frames [][]byte) *MemorySource {
	return &MemorySource{id: id, frames: frames}
}

// ID returns the source identifier
func (s *MemorySource) ID() string {
	return s.id
}

// Next returns the next frame or io.EOF
func (s *MemorySource) Next() ([]byte, error) {
	if s.next >= len(s.frames) {
		return nil, io.EOF
	}
	frame := s.frames[s.next]
	s.next++
	return frame, nil
}

// Close is a no-op for memory sources
func (s *MemorySource) Close() error {
	return nil
}

// ForEachPayload drains a packet source, invoking fn once per frame that
// carries an application-layer payload. Frames without a payload are skipped
// entirely. The source is closed before returning.
func ForEachPayload(src interfaces.PacketSource, fn func(payload []byte) error) error {
	defer src.Close()
	for {
		frame, err := src.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		offset, length, ok := Payload(frame)
		if !ok {
			continue
		}
		if err := fn(frame[offset : offset+length]); err != nil {
			return err
		}
	}
}
