package errmodel

import (
	"fmt"
	"os"
	"strconv"

	"github.com/francoispqt/gojay"
)

// A configuration file is an array of vector entries. Each vector entry is an
// array with one entry per bit:
//
//	[[{"error_model": "UNIFORM_RANDOM", "model_params": [[0.1], [0.2]]},
//	  {"error_model": "STUCK_AT", "model_params": [[true]]}]]
//
// and expands to the cartesian product of its per-bit alternatives.
type fileDoc []vectorDoc

func (f *fileDoc) UnmarshalJSONArray(dec *gojay.Decoder) error {
	var v vectorDoc
	if err := dec.Array(&v); err != nil {
		return err
	}
	*f = append(*f, v)
	return nil
}

type vectorDoc []bitDoc

func (v *vectorDoc) UnmarshalJSONArray(dec *gojay.Decoder) error {
	var b bitDoc
	if err := dec.Object(&b); err != nil {
		return err
	}
	*v = append(*v, b)
	return nil
}

type bitDoc struct {
	Model  string
	Params paramSets
}

func (b *bitDoc) UnmarshalJSONObject(dec *gojay.Decoder, key string) error {
	switch key {
	case "error_model":
		return dec.String(&b.Model)
	case "model_params":
		return dec.Array(&b.Params)
	}
	return nil
}

func (b *bitDoc) NKeys() int { return 0 }

type paramSets [][]string

func (p *paramSets) UnmarshalJSONArray(dec *gojay.Decoder) error {
	var s paramSet
	if err := dec.Array(&s); err != nil {
		return err
	}
	*p = append(*p, []string(s))
	return nil
}

// paramSet holds parameters in textual form so numbers and booleans go
// through the same parsers as command line tokens.
type paramSet []string

func (p *paramSet) UnmarshalJSONArray(dec *gojay.Decoder) error {
	var v interface{}
	if err := dec.Interface(&v); err != nil {
		return err
	}
	switch x := v.(type) {
	case float64:
		*p = append(*p, strconv.FormatFloat(x, 'g', -1, 64))
	case bool:
		*p = append(*p, strconv.FormatBool(x))
	case string:
		*p = append(*p, x)
	default:
		return fmt.Errorf("errmodel: unsupported parameter %v", v)
	}
	return nil
}

// Decode parses a configuration document into error model vectors.
func Decode(data []byte) ([]Vector, error) {
	var spec fileDoc
	if err := gojay.UnmarshalJSONArray(data, &spec); err != nil {
		return nil, fmt.Errorf("errmodel: malformed configuration: %w", err)
	}
	var out []Vector
	for vi, vs := range spec {
		perBit := make([][]Descriptor, 0, len(vs))
		for bi, bs := range vs {
			m, err := ParseModel(bs.Model)
			if err != nil {
				return nil, fmt.Errorf("errmodel: vector %d bit %d: %w", vi, bi, err)
			}
			if len(bs.Params) == 0 {
				return nil, fmt.Errorf("errmodel: vector %d bit %d: %s has no model_params: %w", vi, bi, m, ErrParamCount)
			}
			alts := make([]Descriptor, 0, len(bs.Params))
			for _, ps := range bs.Params {
				d, err := New(m, ps)
				if err != nil {
					return nil, fmt.Errorf("errmodel: vector %d bit %d: %w", vi, bi, err)
				}
				alts = append(alts, d)
			}
			perBit = append(perBit, alts)
		}
		out = append(out, CartesianProduct(perBit)...)
	}
	return out, nil
}

// LoadFile reads a JSON configuration file.
func LoadFile(path string) ([]Vector, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	v, err := Decode(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}
