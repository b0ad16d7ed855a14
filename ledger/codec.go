// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/codec"
	"github.com/ava-labs/avalanchego/codec/linearcodec"
	"github.com/ava-labs/avalanchego/utils/units"
	"github.com/ava-labs/avalanchego/utils/wrappers"
)

const (
	// CodecVersion is the current default codec version
	CodecVersion = 0

	maxMessageSize = 4 * units.MiB
)

var (
	// ErrDecode is returned when a request payload or journal cannot be
	// decoded into the expected structure.
	ErrDecode = errors.New("malformed payload")

	errWrongCodecVersion = errors.New("wrong codec version")
)

// decodeError is an ErrDecode that keeps its cause matchable.
type decodeError struct {
	cause error
}

func (e *decodeError) Error() string { return ErrDecode.Error() + ": " + e.cause.Error() }

func (e *decodeError) Is(target error) bool { return target == ErrDecode }

func (e *decodeError) Unwrap() error { return e.cause }

// DecodeError marks [err] as an ErrDecode.
func DecodeError(err error) error {
	return &decodeError{cause: err}
}

// Codec does serialization and deserialization of every ledger record. The
// encoding is canonical: a value always marshals to the same bytes, which is
// what state digests are computed over.
var Codec codec.Manager

func init() {
	c := linearcodec.NewDefault()
	Codec = codec.NewManager(maxMessageSize)

	errs := wrappers.Errs{}
	errs.Add(
		Codec.RegisterCodec(CodecVersion, c),
	)
	if errs.Errored() {
		panic(errs.Err)
	}
}

// Marshal encodes [v] with the current codec version.
func Marshal(v interface{}) ([]byte, error) {
	return Codec.Marshal(CodecVersion, v)
}

// Unmarshal decodes [b] into [v]. Every failure wraps ErrDecode.
func Unmarshal(b []byte, v interface{}) error {
	version, err := Codec.Unmarshal(b, v)
	if err != nil {
		return DecodeError(err)
	}
	if version != CodecVersion {
		return DecodeError(fmt.Errorf("%w %d", errWrongCodecVersion, version))
	}
	return nil
}
