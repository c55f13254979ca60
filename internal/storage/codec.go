package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec compresses the stored bootstrap ensemble.
type Codec interface {
	// Name is used as the file suffix.
	Name() string
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

var ErrCorrupt = errors.New("storage: corrupt compressed payload")

var codecs = map[string]Codec{
	"none": NoOpCodec{},
	"zstd": ZstdCodec{},
	"lz4":  LZ4Codec{},
}

// CodecByName returns a built-in codec.
func CodecByName(name string) (Codec, error) {
	if c, ok := codecs[name]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("storage: unsupported codec %q (want none, zstd or lz4)", name)
}

type NoOpCodec struct{}

func (NoOpCodec) Name() string                           { return "none" }
func (NoOpCodec) Compress(data []byte) ([]byte, error)   { return data, nil }
func (NoOpCodec) Decompress(data []byte) ([]byte, error) { return data, nil }

var zstdEncoderPool = sync.Pool{
	New: func() any {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			panic(fmt.Sprintf("storage: zstd encoder: %v", err))
		}
		return enc
	},
}

var zstdDecoderPool = sync.Pool{
	New: func() any {
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			panic(fmt.Sprintf("storage: zstd decoder: %v", err))
		}
		return dec
	},
}

type ZstdCodec struct{}

func (ZstdCodec) Name() string { return "zstd" }

func (ZstdCodec) Compress(data []byte) ([]byte, error) {
	enc := zstdEncoderPool.Get().(*zstd.Encoder)
	defer zstdEncoderPool.Put(enc)
	return enc.EncodeAll(data, nil), nil
}

func (ZstdCodec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dec := zstdDecoderPool.Get().(*zstd.Decoder)
	defer zstdDecoderPool.Put(dec)

	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return out, nil
}

var lz4CompressorPool = sync.Pool{
	New: func() any { return &lz4.Compressor{} },
}

const (
	lz4Raw byte = iota
	lz4Block
)

// LZ4Codec frames an LZ4 block as mode byte, uvarint original length,
// payload. Incompressible input is stored raw.
type LZ4Codec struct{}

func (LZ4Codec) Name() string { return "lz4" }

func (LZ4Codec) Compress(data []byte) ([]byte, error) {
	hdr := make([]byte, 1, 1+binary.MaxVarintLen64)
	hdr = binary.AppendUvarint(hdr, uint64(len(data)))

	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	lc := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(data, dst)
	if err != nil {
		return nil, err
	}
	if n == 0 || n >= len(data) {
		hdr[0] = lz4Raw
		return append(hdr, data...), nil
	}
	hdr[0] = lz4Block
	return append(hdr, dst[:n]...), nil
}

func (LZ4Codec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	size, k := binary.Uvarint(data[1:])
	if k <= 0 {
		return nil, ErrCorrupt
	}
	payload := data[1+k:]

	switch data[0] {
	case lz4Raw:
		if uint64(len(payload)) != size {
			return nil, ErrCorrupt
		}
		return append([]byte(nil), payload...), nil
	case lz4Block:
		out := make([]byte, size)
		n, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if uint64(n) != size {
			return nil, ErrCorrupt
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: unknown lz4 frame mode %d", ErrCorrupt, data[0])
}
