// Package restart - record serialization.
//
// The payload is a gob-encoded snapshot of one ParameterResponsePair. The
// framing around it (length prefix, CRC-32, version tag) is the wire
// contract; the payload format is process-internal with no cross-language
// consumer, so the stdlib codec suffices.
package restart

import (
	"bytes"
	"encoding/gob"

	"github.com/katalvlaran/optiq/cache"
	"github.com/katalvlaran/optiq/matrix"
	"github.com/katalvlaran/optiq/response"
	"github.com/katalvlaran/optiq/vars"
)

// record is the gob-facing flat form of a pair.
type record struct {
	InterfaceID string
	EvalID      int64

	// Point, split by kind tag per position.
	Kinds []uint8
	Reals []float64
	Ints  []int64
	Cats  []string

	// Response.
	ASet   []uint8
	Values []float64
	Failed []bool
	Grad   [][]float64
	Hess   [][][]float64
}

// toRecord flattens a pair.
func toRecord(p *cache.Pair) (*record, error) {
	pt := p.Point()
	rs := p.Response()

	rec := &record{
		InterfaceID: p.InterfaceID(),
		EvalID:      p.EvalID(),
		Kinds:       make([]uint8, len(pt)),
		Reals:       make([]float64, len(pt)),
		Ints:        make([]int64, len(pt)),
		Cats:        make([]string, len(pt)),
		ASet:        make([]uint8, len(rs.Set)),
		Values:      append([]float64(nil), rs.Values...),
		Failed:      append([]bool(nil), rs.Failed...),
	}
	for i, v := range pt {
		rec.Kinds[i] = uint8(v.Kind)
		rec.Reals[i] = v.Real
		rec.Ints[i] = v.Int
		rec.Cats[i] = v.Cat
	}
	for i, req := range rs.Set {
		rec.ASet[i] = uint8(req)
	}
	if rs.Gradients != nil {
		rec.Grad = make([][]float64, rs.Gradients.Rows())
		for i := range rec.Grad {
			row, err := rs.Gradients.Row(i)
			if err != nil {
				return nil, err
			}
			rec.Grad[i] = row
		}
	}
	if rs.Hessians != nil {
		rec.Hess = make([][][]float64, len(rs.Hessians))
		for i, h := range rs.Hessians {
			if h == nil {
				continue
			}
			rows := make([][]float64, h.Rows())
			for j := range rows {
				row, err := h.Row(j)
				if err != nil {
					return nil, err
				}
				rows[j] = row
			}
			rec.Hess[i] = rows
		}
	}
	return rec, nil
}

// toPair rebuilds a restart-sourced pair from a record.
func (rec *record) toPair() (*cache.Pair, error) {
	pt := make(vars.Point, len(rec.Kinds))
	for i := range rec.Kinds {
		pt[i] = vars.Value{
			Kind: vars.Kind(rec.Kinds[i]),
			Real: rec.Reals[i],
			Int:  rec.Ints[i],
			Cat:  rec.Cats[i],
		}
	}

	as := make(response.ActiveSet, len(rec.ASet))
	for i, c := range rec.ASet {
		as[i] = response.Request(c)
	}
	rs := &response.Response{
		Set:    as,
		Values: append([]float64(nil), rec.Values...),
		Failed: append([]bool(nil), rec.Failed...),
	}
	if len(rec.Grad) > 0 {
		g, err := matrix.FromRows(rec.Grad)
		if err != nil {
			return nil, err
		}
		rs.Gradients = g
	}
	if len(rec.Hess) > 0 {
		rs.Hessians = make([]*matrix.Dense, len(rec.Hess))
		for i, rows := range rec.Hess {
			if len(rows) == 0 {
				continue
			}
			h, err := matrix.FromRows(rows)
			if err != nil {
				return nil, err
			}
			rs.Hessians[i] = h
		}
	}
	return cache.NewRestartPair(rec.InterfaceID, pt, rs, rec.EvalID)
}

// encode gob-serializes rec.
func (rec *record) encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(rec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeRecord parses a payload produced by encode.
func decodeRecord(payload []byte) (*record, error) {
	var rec record
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
