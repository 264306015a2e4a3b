package domain

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	jsoniter "github.com/json-iterator/go"
)

var (
	deltaJSON = jsoniter.ConfigCompatibleWithStandardLibrary
	stampNow  = clockwork.NewRealClock()
)

// SetClock replaces the clock that stamps deltas; nil restores wall time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	stampNow = c
}

// Delta is the Signal K update envelope a host bus expects:
//
//	{"updates":[{"$source":"ecowitt","timestamp":"...","values":[{"path":...,"value":...}]}]}
type Delta struct {
	Updates []Update `json:"updates"`
}

// Update groups the values produced by one upload.
type Update struct {
	Source    string    `json:"$source,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Values    Batch     `json:"values"`
}

// NewDelta wraps batch in a single-update delta stamped with the current time.
func NewDelta(source string, batch Batch) Delta {
	if batch == nil {
		batch = Batch{}
	}
	return Delta{
		Updates: []Update{{
			Source:    source,
			Timestamp: stampNow.Now().UTC(),
			Values:    batch,
		}},
	}
}

// Len returns the total number of values across all updates.
func (d Delta) Len() int {
	n := 0
	for _, u := range d.Updates {
		n += len(u.Values)
	}
	return n
}

// EncodeDelta serializes d to JSON.
func EncodeDelta(d Delta) ([]byte, error) {
	data, err := deltaJSON.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode delta: %w", err)
	}
	return data, nil
}

// DecodeDelta parses a JSON delta produced by [EncodeDelta].
func DecodeDelta(data []byte) (Delta, error) {
	var d Delta
	if err := deltaJSON.Unmarshal(data, &d); err != nil {
		return Delta{}, fmt.Errorf("decode delta: %w", err)
	}
	return d, nil
}
