package ecc

import (
	"fmt"
	"os"
	"strings"

	"github.com/francoispqt/gojay"
)

// schemeRecord is the persisted form of a scheme:
//
//	{"s":"HSC","k":4,"p":0,"t":1,"n":7,"uid":...,"G":[[..]],"H":[[..]],"R":[[..]]}
//
// BCH records carry "m" and the generator polynomial "g" instead of
// matrices. Unknown keys, including "miscorrection_profile", are skipped.
type schemeRecord struct {
	S   string
	K   int
	P   int
	T   int
	N   int
	M   int
	UID uint64
	G   intMatrix
	H   intMatrix
	R   intMatrix
	Gen intSlice
}

func (r *schemeRecord) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("s", r.S)
	enc.IntKey("k", r.K)
	enc.IntKey("p", r.P)
	enc.IntKey("t", r.T)
	enc.IntKey("n", r.N)
	enc.Uint64Key("uid", r.UID)
	if r.G != nil {
		enc.ArrayKey("G", r.G)
	}
	if r.H != nil {
		enc.ArrayKey("H", r.H)
	}
	if r.R != nil {
		enc.ArrayKey("R", r.R)
	}
	if r.M > 0 {
		enc.IntKey("m", r.M)
	}
	if r.Gen != nil {
		enc.ArrayKey("g", r.Gen)
	}
}

func (r *schemeRecord) IsNil() bool { return r == nil }

func (r *schemeRecord) UnmarshalJSONObject(dec *gojay.Decoder, key string) error {
	switch key {
	case "s":
		return dec.String(&r.S)
	case "k":
		return dec.Int(&r.K)
	case "p":
		return dec.Int(&r.P)
	case "t":
		return dec.Int(&r.T)
	case "n":
		return dec.Int(&r.N)
	case "m":
		return dec.Int(&r.M)
	case "uid":
		return dec.Uint64(&r.UID)
	case "G":
		return dec.Array(&r.G)
	case "H":
		return dec.Array(&r.H)
	case "R":
		return dec.Array(&r.R)
	case "g":
		return dec.Array(&r.Gen)
	}
	return nil
}

func (r *schemeRecord) NKeys() int { return 0 }

type intSlice []int

func (s intSlice) MarshalJSONArray(enc *gojay.Encoder) {
	for _, v := range s {
		enc.Int(v)
	}
}

func (s intSlice) IsNil() bool { return s == nil }

func (s *intSlice) UnmarshalJSONArray(dec *gojay.Decoder) error {
	var v int
	if err := dec.Int(&v); err != nil {
		return err
	}
	*s = append(*s, v)
	return nil
}

type intMatrix [][]int

func (m intMatrix) MarshalJSONArray(enc *gojay.Encoder) {
	for _, row := range m {
		enc.Array(intSlice(row))
	}
}

func (m intMatrix) IsNil() bool { return m == nil }

func (m *intMatrix) UnmarshalJSONArray(dec *gojay.Decoder) error {
	var row intSlice
	if err := dec.Array(&row); err != nil {
		return err
	}
	*m = append(*m, []int(row))
	return nil
}

func recordOf(s Scheme) (*schemeRecord, error) {
	r := &schemeRecord{
		S:   s.Name(),
		K:   s.DataBits(),
		P:   s.Permutation(),
		T:   s.CorrectionCapability(),
		N:   s.CodeBits(),
		UID: s.UID(),
	}
	switch c := s.(type) {
	case *Hamming:
		r.G = c.g.IntRows()
		r.H = c.h.IntRows()
		r.R = c.r.IntRows()
	case *Repetition:
		r.G = c.g.IntRows()
		r.R = c.r.IntRows()
	case *BCH:
		r.M = c.M()
		r.Gen = c.Generator()
	default:
		return nil, fmt.Errorf("ecc: cannot serialize scheme of type %T", s)
	}
	return r, nil
}

// MarshalScheme returns the compact JSON form of s.
func MarshalScheme(s Scheme) ([]byte, error) {
	r, err := recordOf(s)
	if err != nil {
		return nil, err
	}
	return gojay.MarshalJSONObject(r)
}

// UnmarshalScheme rebuilds a scheme from its JSON form. Hamming codes are
// rebuilt from their matrices; other codes are rebuilt from their
// parameters (t included, so unregistered strengths round trip too). In every case the recomputed uid must match the stored one.
func UnmarshalScheme(data []byte) (Scheme, error) {
	var r schemeRecord
	if err := gojay.UnmarshalJSONObject(data, &r); err != nil {
		return nil, fmt.Errorf("ecc: decode scheme: %w", err)
	}
	if r.S == "HSC" {
		g, okG := MatrixFromRows(r.G)
		h, okH := MatrixFromRows(r.H)
		rm, okR := MatrixFromRows(r.R)
		if !okG || !okH || !okR || r.G == nil || r.H == nil || r.R == nil {
			return nil, fmt.Errorf("ecc: HSC record needs well-formed G, H and R: %w", ErrInvariant)
		}
		return NewHammingFromMatrices(r.K, r.P, g, h, rm, r.UID)
	}
	var (
		s   Scheme
		err error
	)
	switch {
	case strings.HasPrefix(r.S, "BCH_T"):
		s, err = NewBCH(r.K, r.T, r.P)
	case strings.HasPrefix(r.S, "REP_T"):
		s, err = NewRepetition(r.K, 2*r.T+1, r.P)
	default:
		s, err = Build(r.S, r.K, r.P)
	}
	if err != nil {
		return nil, err
	}
	if s.UID() != r.UID {
		return nil, fmt.Errorf("ecc: %s stored uid %d, computed %d: %w", r.S, r.UID, s.UID(), ErrChecksum)
	}
	return s, nil
}

// LoadScheme reads and rebuilds a scheme from a JSON file.
func LoadScheme(path string) (Scheme, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	s, err := UnmarshalScheme(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}
