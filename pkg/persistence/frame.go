package persistence

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
)

// Binary frame layout used for snapshot files:
//
//	[magic 1B][opcode 1B][length 4B BE][payload][crc32 4B BE]
//
// The checksum covers opcode, length and payload, so a bit flip anywhere in
// the frame is detected on load.
const (
	frameMagic byte = 0x47 // 'G'

	OpCodeCommand  byte = 0x01
	OpCodeSnapshot byte = 0x02

	// maxFramePayload bounds the length field before any allocation, so a
	// corrupt header cannot force a multi-GiB buffer.
	maxFramePayload = 256 << 20
)

var (
	ErrInvalidMagic     = errors.New("invalid frame magic byte")
	ErrChecksumMismatch = errors.New("frame checksum mismatch")
	ErrIncompleteFrame  = errors.New("incomplete frame")
	ErrFrameTooLarge    = errors.New("frame payload exceeds maximum size")
)

// WriteFrame writes a single checksummed frame to w.
func WriteFrame(w io.Writer, opcode byte, payload []byte) error {
	header := make([]byte, 6)
	header[0] = frameMagic
	header[1] = opcode
	binary.BigEndian.PutUint32(header[2:], uint32(len(payload)))

	crc := crc32.NewIEEE()
	crc.Write(header[1:])
	crc.Write(payload)

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write frame header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("failed to write frame payload: %w", err)
	}

	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], crc.Sum32())
	if _, err := w.Write(sum[:]); err != nil {
		return fmt.Errorf("failed to write frame checksum: %w", err)
	}
	return nil
}

// ReadFrame reads the next frame from r and verifies its checksum.
// It returns io.EOF when the stream is cleanly exhausted.
func ReadFrame(r io.Reader) (opcode byte, payload []byte, err error) {
	header := make([]byte, 6)
	if _, err := io.ReadFull(r, header); err != nil {
		if err == io.EOF {
			return 0, nil, io.EOF
		}
		return 0, nil, ErrIncompleteFrame
	}
	if header[0] != frameMagic {
		return 0, nil, ErrInvalidMagic
	}
	opcode = header[1]
	length := binary.BigEndian.Uint32(header[2:])
	if length > maxFramePayload {
		return 0, nil, ErrFrameTooLarge
	}

	payload = make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, ErrIncompleteFrame
	}

	var sum [4]byte
	if _, err := io.ReadFull(r, sum[:]); err != nil {
		return 0, nil, ErrIncompleteFrame
	}

	crc := crc32.NewIEEE()
	crc.Write(header[1:])
	crc.Write(payload)
	if crc.Sum32() != binary.BigEndian.Uint32(sum[:]) {
		return 0, nil, ErrChecksumMismatch
	}
	return opcode, payload, nil
}
