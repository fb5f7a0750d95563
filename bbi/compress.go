package bbi

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"
)

// decompressBlock inflates a single data block. If uncompressBufSize is
// zero the block is stored raw and raw is returned as-is.
func decompressBlock(raw []byte, uncompressBufSize uint32) ([]byte, error) {
	if uncompressBufSize == 0 {
		return raw, nil
	}
	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, wrapf(err, "opening zlib block")
	}
	defer zr.Close()

	out := make([]byte, 0, uncompressBufSize)
	buf := bytes.NewBuffer(out)
	if _, err := io.Copy(buf, zr); err != nil {
		return nil, wrapf(err, "inflating zlib block")
	}
	return buf.Bytes(), nil
}

// compressBlock deflates raw at the default compression level, for
// writers built with WriterOptions.Compress set.
func compressBlock(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		zw.Close()
		return nil, wrapf(err, "deflating block")
	}
	if err := zw.Close(); err != nil {
		return nil, wrapf(err, "closing zlib writer")
	}
	return buf.Bytes(), nil
}
