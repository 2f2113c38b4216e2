package codec

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("codec: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("codec: zstd decoder initialization failed: " + err.Error())
	}
}

// MarshalCompressed encodes v to deterministic CBOR and compresses it with
// zstd.
func MarshalCompressed(v any) ([]byte, error) {
	data, err := Marshal(v)
	if err != nil {
		return nil, err
	}
	return zstdEncoder.EncodeAll(data, nil), nil
}

// UnmarshalCompressed reverses MarshalCompressed.
func UnmarshalCompressed(data []byte, v any) error {
	raw, err := zstdDecoder.DecodeAll(data, nil)
	if err != nil {
		return fmt.Errorf("zstd decompress: %w", err)
	}
	return Unmarshal(raw, v)
}
