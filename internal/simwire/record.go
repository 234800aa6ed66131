// Package simwire formats and parses the line-oriented simulation output:
//
//	[ECC] <scheme json>
//	[INFO] <message>
//	[DATA] uid:.. nw:.. bl:.. bcl:.. ps:.. em:.. cd:.. dp:..[ cdp:..] obs:.. [ ... ]
//
// Downstream tooling parses these lines, so field order and spacing are
// fixed.
package simwire

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	TagData = "[DATA]"
	TagECC  = "[ECC]"
	TagInfo = "[INFO]"
)

var (
	ErrMalformed         = errors.New("simwire: malformed record")
	ErrUnknownObservable = errors.New("simwire: unknown observable")
)

type Observable int

const (
	ErrorsPerBurst Observable = iota
	PerBitErrorCount
)

var observableNames = [...]string{"N_ERRORS_PER_BURST", "PER_BIT_ERROR_COUNT"}

func (o Observable) String() string {
	if o < 0 || int(o) >= len(observableNames) {
		return "UNKNOWN"
	}
	return observableNames[o]
}

func ParseObservable(s string) (Observable, error) {
	u := strings.ToUpper(s)
	for i, n := range observableNames {
		if u == n {
			return Observable(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownObservable, s)
}

// Bucket counts bursts by number of erroneous bits: Code before decoding
// (raw errors), Data after decoding (uncorrectable errors).
type Bucket struct {
	N    int
	Code uint64
	Data uint64
}

// DataRecord is one [DATA] line.
type DataRecord struct {
	UID           uint64
	Words         uint64
	BurstBits     int
	BurstCodeBits int
	Pad           int
	Model         string
	Cells         string
	Pattern       string
	// Custom is the hex form of a custom data pattern, empty otherwise.
	Custom     string
	Observable Observable

	Buckets    []Bucket // ErrorsPerBurst, ascending N
	PerBitData []uint64 // PerBitErrorCount
	PerBitCode []uint64 // PerBitErrorCount
}

func FormatData(r *DataRecord) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s uid:%d nw:%d bl:%d bcl:%d ps:%d em:%s cd:%s dp:%s",
		TagData, r.UID, r.Words, r.BurstBits, r.BurstCodeBits, r.Pad, r.Model, r.Cells, r.Pattern)
	if r.Custom != "" {
		sb.WriteString(" cdp:")
		sb.WriteString(r.Custom)
	}
	sb.WriteString(" obs:")
	sb.WriteString(r.Observable.String())
	sb.WriteString(" [ ")
	switch r.Observable {
	case ErrorsPerBurst:
		for _, b := range r.Buckets {
			fmt.Fprintf(&sb, "%d:%d:%d ", b.N, b.Code, b.Data)
		}
	case PerBitErrorCount:
		for _, v := range r.PerBitData {
			sb.WriteString(strconv.FormatUint(v, 10))
			sb.WriteByte(' ')
		}
		sb.WriteString(": ")
		for _, v := range r.PerBitCode {
			sb.WriteString(strconv.FormatUint(v, 10))
			sb.WriteByte(' ')
		}
	}
	sb.WriteByte(']')
	return sb.String()
}

func FormatECC(json []byte) string { return TagECC + " " + string(json) }

func FormatInfo(msg string) string { return TagInfo + " " + msg }

// ParseData inverts FormatData. Error model strings may contain spaces, so
// the em field runs up to the cd key.
func ParseData(line string) (*DataRecord, error) {
	rest, ok := strings.CutPrefix(strings.TrimRight(line, "\r\n"), TagData+" ")
	if !ok {
		return nil, fmt.Errorf("%w: missing %s tag", ErrMalformed, TagData)
	}
	head, em, ok := strings.Cut(rest, " em:")
	if !ok {
		return nil, fmt.Errorf("%w: missing em", ErrMalformed)
	}
	em, tail, ok := strings.Cut(em, " cd:")
	if !ok {
		return nil, fmt.Errorf("%w: missing cd", ErrMalformed)
	}
	meta, body, ok := strings.Cut(tail, " [ ")
	if !ok || !strings.HasSuffix(body, "]") {
		return nil, fmt.Errorf("%w: missing histogram", ErrMalformed)
	}
	body = strings.TrimSuffix(body, "]")

	r := &DataRecord{Model: em}
	nums := strings.Fields(head)
	if len(nums) != 5 {
		return nil, fmt.Errorf("%w: expected 5 numeric fields, got %d", ErrMalformed, len(nums))
	}
	var err error
	if r.UID, err = uintField(nums[0], "uid"); err != nil {
		return nil, err
	}
	if r.Words, err = uintField(nums[1], "nw"); err != nil {
		return nil, err
	}
	ints := []*int{&r.BurstBits, &r.BurstCodeBits, &r.Pad}
	for i, key := range []string{"bl", "bcl", "ps"} {
		v, err := uintField(nums[2+i], key)
		if err != nil {
			return nil, err
		}
		*ints[i] = int(v)
	}

	fields := strings.Fields("cd:" + meta)
	for _, f := range fields {
		k, v, ok := strings.Cut(f, ":")
		if !ok {
			return nil, fmt.Errorf("%w: field %q", ErrMalformed, f)
		}
		switch k {
		case "cd":
			r.Cells = v
		case "dp":
			r.Pattern = v
		case "cdp":
			r.Custom = v
		case "obs":
			if r.Observable, err = ParseObservable(v); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("%w: unexpected key %q", ErrMalformed, k)
		}
	}

	switch r.Observable {
	case ErrorsPerBurst:
		for _, f := range strings.Fields(body) {
			parts := strings.Split(f, ":")
			if len(parts) != 3 {
				return nil, fmt.Errorf("%w: bucket %q", ErrMalformed, f)
			}
			n, err1 := strconv.Atoi(parts[0])
			c, err2 := strconv.ParseUint(parts[1], 10, 64)
			d, err3 := strconv.ParseUint(parts[2], 10, 64)
			if err := errors.Join(err1, err2, err3); err != nil {
				return nil, fmt.Errorf("%w: bucket %q: %w", ErrMalformed, f, err)
			}
			r.Buckets = append(r.Buckets, Bucket{N: n, Code: c, Data: d})
		}
	case PerBitErrorCount:
		data, code, ok := strings.Cut(body, ": ")
		if !ok {
			return nil, fmt.Errorf("%w: per-bit histogram without separator", ErrMalformed)
		}
		if r.PerBitData, err = uintList(data); err != nil {
			return nil, err
		}
		if r.PerBitCode, err = uintList(code); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func uintField(f, key string) (uint64, error) {
	v, ok := strings.CutPrefix(f, key+":")
	if !ok {
		return 0, fmt.Errorf("%w: expected %s, got %q", ErrMalformed, key, f)
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrMalformed, key, err)
	}
	return n, nil
}

func uintList(s string) ([]uint64, error) {
	fs := strings.Fields(s)
	out := make([]uint64, len(fs))
	for i, f := range fs {
		v, err := strconv.ParseUint(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		out[i] = v
	}
	return out, nil
}
