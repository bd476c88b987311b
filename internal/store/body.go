package store

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"
)

const (
	codecRaw  = "raw"
	codecZstd = "zstd"
)

// ErrCorrupt is returned when a stored body no longer matches its digest.
var ErrCorrupt = errors.New("stored body does not match its digest")

// bodyKey separates body digests from any other BLAKE3 use.
var bodyKey = blake3.Sum256([]byte("greentic-types envelope body v1"))

// Shared across calls; both are safe for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("store: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("store: zstd decoder initialization failed: " + err.Error())
	}
}

// Digest returns the lowercase hex keyed BLAKE3 digest of a body.
func Digest(body []byte) string {
	h, err := blake3.NewKeyed(bodyKey[:])
	if err != nil {
		panic("store: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// packBody compresses body when zstd makes it smaller.
func packBody(body []byte) (codec string, data []byte) {
	compressed := zstdEncoder.EncodeAll(body, nil)
	if len(compressed) >= len(body) {
		return codecRaw, body
	}
	return codecZstd, compressed
}

// unpackBody reverses packBody and re-checks the digest.
func unpackBody(codec string, data []byte, size int, digest string) ([]byte, error) {
	var body []byte
	switch codec {
	case codecRaw:
		body = data
	case codecZstd:
		var err error
		body, err = zstdDecoder.DecodeAll(data, make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown body codec %q", codec)
	}
	if len(body) != size || Digest(body) != digest {
		return nil, fmt.Errorf("%w: %s", ErrCorrupt, digest)
	}
	return body, nil
}
