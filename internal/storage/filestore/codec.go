package filestore

import (
	"bytes"
	"encoding/json"
	"io"
	"maps"
	"slices"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
)

const formatVersion = 1

var gzipMagic = []byte{0x1f, 0x8b}

// encodeCollection writes records as a versioned JSON envelope, gzip
// framed when compress is set. Keys are written in sorted order.
func encodeCollection[V any](name string, records map[string]V, compress bool) ([]byte, error) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("collection")
	e.Str(name)
	e.FieldStart("version")
	e.Int(formatVersion)
	e.FieldStart("records")
	e.ObjStart()
	for _, key := range slices.Sorted(maps.Keys(records)) {
		raw, err := json.Marshal(records[key])
		if err != nil {
			return nil, errors.Wrapf(err, "marshal record %q", key)
		}
		e.FieldStart(key)
		e.Raw(raw)
	}
	e.ObjEnd()
	e.ObjEnd()

	if !compress {
		return e.Bytes(), nil
	}

	var buf bytes.Buffer
	zw := pgzip.NewWriter(&buf)
	if _, err := zw.Write(e.Bytes()); err != nil {
		return nil, errors.Wrap(err, "compress")
	}
	if err := zw.Close(); err != nil {
		return nil, errors.Wrap(err, "close compressor")
	}
	return buf.Bytes(), nil
}

// decodeCollection reverses encodeCollection. Empty input is an empty
// collection. Plain and gzip framed inputs are both accepted.
func decodeCollection[V any](name string, data []byte) (map[string]V, error) {
	records := make(map[string]V)
	if len(data) == 0 {
		return records, nil
	}

	if bytes.HasPrefix(data, gzipMagic) {
		zr, err := pgzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, errors.Wrap(err, "open decompressor")
		}
		defer func() { _ = zr.Close() }()
		if data, err = io.ReadAll(zr); err != nil {
			return nil, errors.Wrap(err, "decompress")
		}
	}

	err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "collection":
			got, err := d.Str()
			if err != nil {
				return err
			}
			if got != name {
				return errors.Errorf("file holds collection %q, want %q", got, name)
			}
			return nil
		case "version":
			v, err := d.Int()
			if err != nil {
				return err
			}
			if v != formatVersion {
				return errors.Errorf("unsupported format version %d", v)
			}
			return nil
		case "records":
			return d.Obj(func(d *jx.Decoder, key string) error {
				raw, err := d.Raw()
				if err != nil {
					return err
				}
				var v V
				if err := json.Unmarshal(raw, &v); err != nil {
					return errors.Wrapf(err, "unmarshal record %q", key)
				}
				records[key] = v
				return nil
			})
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode envelope")
	}
	return records, nil
}
