// Package codec is the record encoding boundary: every persisted record is a
// CBOR document behind a one-byte format version, bounded to a declared
// maximum encoded size per record type. Oversize records are rejected before
// anything is written.
package codec

import (
	"snipbin/pkg/domain"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

const (
	// FormatVersion prefixes every encoded record.
	FormatVersion byte = 1

	// MaxProfileSize bounds an encoded profile record.
	MaxProfileSize = 1 * 1024
	// MaxPasteSize bounds an encoded paste record.
	MaxPasteSize = 16 * 1024
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	// Core deterministic encoding keeps records byte-stable across versions
	// of the library, which the size bounds depend on.
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(err)
	}
}

func encode(v interface{}, max int) ([]byte, error) {
	data, err := encMode.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "cbor marshal")
	}
	if len(data)+1 > max {
		return nil, domain.ErrRecordTooLarge
	}
	buf := make([]byte, 0, len(data)+1)
	buf = append(buf, FormatVersion)
	buf = append(buf, data...)
	return buf, nil
}

func decode(data []byte, v interface{}) error {
	if len(data) < 1 {
		return errors.New("record truncated")
	}
	if data[0] != FormatVersion {
		return errors.Errorf("unknown record format version %d", data[0])
	}
	return errors.Wrap(decMode.Unmarshal(data[1:], v), "cbor unmarshal")
}

func EncodePaste(p *domain.Paste) ([]byte, error) {
	return encode(p, MaxPasteSize)
}

func DecodePaste(data []byte) (*domain.Paste, error) {
	var p domain.Paste
	if err := decode(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func EncodeProfile(pr *domain.Profile) ([]byte, error) {
	return encode(pr, MaxProfileSize)
}

func DecodeProfile(data []byte) (*domain.Profile, error) {
	var pr domain.Profile
	if err := decode(data, &pr); err != nil {
		return nil, err
	}
	return &pr, nil
}
