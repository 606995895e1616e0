package shuffle

import (
	"encoding/binary"
	"io"

	"github.com/flowshard/core/pipeerr"
)

// Wire format constants, bit-exact and compatibility-critical per §6.
var magic = [4]byte{'S', 'H', 'U', 'F'}

const wireVersion uint8 = 1

const (
	tagData   uint8 = 0x01
	tagEndOK  uint8 = 0x02
	tagEndErr uint8 = 0x03
)

// writeHandshake writes MAGIC(4) VERSION(1) SHARD_ID(4, big-endian).
func writeHandshake(w io.Writer, shardID uint32) error {
	buf := make([]byte, 4+1+4)
	copy(buf[0:4], magic[:])
	buf[4] = wireVersion
	binary.BigEndian.PutUint32(buf[5:9], shardID)
	_, err := w.Write(buf)
	if err != nil {
		return pipeerr.Wrap(pipeerr.IO, "write handshake", err)
	}
	return nil
}

// readHandshake reads and validates the peer's handshake, returning its
// shard id.
func readHandshake(r io.Reader) (uint32, error) {
	buf := make([]byte, 4+1+4)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, pipeerr.Wrap(pipeerr.IO, "read handshake", err)
	}
	if [4]byte(buf[0:4]) != magic {
		return 0, pipeerr.New(pipeerr.Validation, "bad handshake magic")
	}
	if buf[4] != wireVersion {
		return 0, pipeerr.New(pipeerr.Validation, "unsupported handshake version")
	}
	return binary.BigEndian.Uint32(buf[5:9]), nil
}

// writeDataFrame writes TAG=0x01 LEN(4, big-endian) + payload.
func writeDataFrame(w io.Writer, payload []byte) error {
	header := make([]byte, 1+4)
	header[0] = tagData
	binary.BigEndian.PutUint32(header[1:5], uint32(len(payload)))
	if _, err := w.Write(header); err != nil {
		return pipeerr.Wrap(pipeerr.IO, "write frame header", err)
	}
	if _, err := w.Write(payload); err != nil {
		return pipeerr.Wrap(pipeerr.IO, "write frame payload", err)
	}
	return nil
}

// writeEndOK writes TAG=0x02 with no payload.
func writeEndOK(w io.Writer) error {
	if _, err := w.Write([]byte{tagEndOK}); err != nil {
		return pipeerr.Wrap(pipeerr.IO, "write end-ok frame", err)
	}
	return nil
}

// writeEndErr writes TAG=0x03 LEN(4, big-endian) + UTF-8 message.
func writeEndErr(w io.Writer, message string) error {
	msg := []byte(message)
	header := make([]byte, 1+4)
	header[0] = tagEndErr
	binary.BigEndian.PutUint32(header[1:5], uint32(len(msg)))
	if _, err := w.Write(header); err != nil {
		return pipeerr.Wrap(pipeerr.IO, "write end-err frame header", err)
	}
	if _, err := w.Write(msg); err != nil {
		return pipeerr.Wrap(pipeerr.IO, "write end-err frame payload", err)
	}
	return nil
}

// frame is a decoded inbound frame.
type frame struct {
	tag     uint8
	payload []byte
	message string
}

// readFrame reads and decodes one frame from r.
func readFrame(r io.Reader) (frame, error) {
	var tagBuf [1]byte
	if _, err := io.ReadFull(r, tagBuf[:]); err != nil {
		return frame{}, pipeerr.Wrap(pipeerr.IO, "read frame tag", err)
	}
	switch tagBuf[0] {
	case tagData:
		payload, err := readLenPrefixed(r)
		if err != nil {
			return frame{}, err
		}
		return frame{tag: tagData, payload: payload}, nil
	case tagEndOK:
		return frame{tag: tagEndOK}, nil
	case tagEndErr:
		payload, err := readLenPrefixed(r)
		if err != nil {
			return frame{}, err
		}
		return frame{tag: tagEndErr, message: string(payload)}, nil
	default:
		return frame{}, pipeerr.New(pipeerr.Validation, "unknown frame tag")
	}
}

func readLenPrefixed(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, pipeerr.Wrap(pipeerr.IO, "read frame length", err)
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, pipeerr.Wrap(pipeerr.IO, "read frame payload", err)
	}
	return payload, nil
}
