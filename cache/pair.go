// Package cache - the ParameterResponsePair record.
package cache

import (
	"github.com/katalvlaran/optiq/response"
	"github.com/katalvlaran/optiq/vars"
)

// Pair is the atomic cached record of one completed evaluation: an
// (interface-id, variables snapshot, response snapshot) triple.
//
// Lifetime: constructed when an evaluation completes, owned by the cache for
// the process lifetime, written once to the restart log. Pairs are immutable
// after construction; the constructor snapshots both the point and the
// response so later caller mutation cannot reach cached state.
type Pair struct {
	interfaceID    string
	point          vars.Point
	resp           *response.Response
	evalID         int64
	restartSourced bool
}

// NewPair snapshots the inputs into an immutable pair.
func NewPair(interfaceID string, p vars.Point, r *response.Response, evalID int64) (*Pair, error) {
	if r == nil {
		return nil, ErrNilPair
	}
	return &Pair{
		interfaceID: interfaceID,
		point:       p.Clone(),
		resp:        r.Clone(),
		evalID:      evalID,
	}, nil
}

// NewRestartPair builds a pair replayed from the restart log; such pairs are
// pinned against LRU eviction.
func NewRestartPair(interfaceID string, p vars.Point, r *response.Response, evalID int64) (*Pair, error) {
	pr, err := NewPair(interfaceID, p, r, evalID)
	if err != nil {
		return nil, err
	}
	pr.restartSourced = true
	return pr, nil
}

// InterfaceID returns the owning interface's id.
func (p *Pair) InterfaceID() string { return p.interfaceID }

// Point returns a copy of the variables snapshot.
func (p *Pair) Point() vars.Point { return p.point.Clone() }

// Response returns a copy of the response snapshot.
func (p *Pair) Response() *response.Response { return p.resp.Clone() }

// EvalID returns the evaluation id the pair completed under.
func (p *Pair) EvalID() int64 { return p.evalID }

// RestartSourced reports whether the pair was replayed from a restart log.
func (p *Pair) RestartSourced() bool { return p.restartSourced }

// key computes the pair's duplicate-detection identity.
func (p *Pair) key() string { return keyOf(p.interfaceID, p.point) }

// keyOf renders the (interface-id, point) identity. The point contributes
// bit-exact value bytes; the id is joined to the point key by a NUL
// separator.
func keyOf(interfaceID string, p vars.Point) string {
	return interfaceID + "\x00" + p.Key()
}
