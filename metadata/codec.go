package metadata

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	json "github.com/goccy/go-json"
)

// Codec serializes metadata to bytes and back. Encode must be deterministic
// for a given value. Decode receives a non-nil pointer to the target type and
// must leave it untouched on failure.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
}

// JSONOption configures a JSONCodec.
type JSONOption func(*JSONCodec)

// WithUnknownFields makes the codec ignore object members that do not map to
// a field of the target type.
func WithUnknownFields() JSONOption {
	return func(c *JSONCodec) { c.allowUnknown = true }
}

// JSONCodec is the default Codec. It is safe for concurrent use.
type JSONCodec struct {
	allowUnknown bool
}

// NewJSONCodec returns a JSONCodec that rejects unknown fields.
func NewJSONCodec(opts ...JSONOption) *JSONCodec {
	c := &JSONCodec{}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Encode implements Codec.
func (c *JSONCodec) Encode(v any) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: nil metadata", ErrCodec)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Join(ErrCodec, err)
	}
	return data, nil
}

// Decode implements Codec.
func (c *JSONCodec) Decode(data []byte, v any) error {
	return decodeInto(v, func(target any) error {
		if len(data) == 0 {
			return errors.New("empty metadata")
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		if !c.allowUnknown {
			dec.DisallowUnknownFields()
		}
		if err := dec.Decode(target); err != nil {
			return err
		}
		if off := dec.InputOffset(); off < int64(len(data)) && len(bytes.TrimLeft(data[off:], " \t\r\n")) > 0 {
			return errors.New("trailing data after metadata")
		}
		return nil
	})
}

// CBORCodec encodes metadata as core deterministic CBOR (RFC 8949 §4.2.1).
// It is safe for concurrent use.
type CBORCodec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

// NewCBORCodec builds the encoding and decoding modes.
func NewCBORCodec() (*CBORCodec, error) {
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, errors.Join(ErrCodec, err)
	}
	dec, err := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		return nil, errors.Join(ErrCodec, err)
	}
	return &CBORCodec{enc: enc, dec: dec}, nil
}

// Encode implements Codec.
func (c *CBORCodec) Encode(v any) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: nil metadata", ErrCodec)
	}
	data, err := c.enc.Marshal(v)
	if err != nil {
		return nil, errors.Join(ErrCodec, err)
	}
	return data, nil
}

// Decode implements Codec.
func (c *CBORCodec) Decode(data []byte, v any) error {
	return decodeInto(v, func(target any) error {
		if len(data) == 0 {
			return errors.New("empty metadata")
		}
		return c.dec.Unmarshal(data, target)
	})
}

// decodeInto decodes into a fresh value of v's element type and only assigns
// it to v once decoding and validation both succeed.
func decodeInto(v any, decode func(target any) error) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("%w: decode target must be a non-nil pointer, got %T", ErrCodec, v)
	}

	fresh := reflect.New(rv.Elem().Type())
	if err := decode(fresh.Interface()); err != nil {
		return errors.Join(ErrCodec, err)
	}
	if err := validate(fresh); err != nil {
		return errors.Join(ErrCodec, err)
	}

	rv.Elem().Set(fresh.Elem())
	return nil
}

func validate(fresh reflect.Value) error {
	elem := fresh.Elem()
	if elem.Kind() == reflect.Pointer && elem.IsNil() {
		return fmt.Errorf("%w: null metadata", ErrInvalidMetadata)
	}
	if v, ok := elem.Interface().(Validator); ok {
		return v.Validate()
	}
	if v, ok := fresh.Interface().(Validator); ok {
		return v.Validate()
	}
	return nil
}
