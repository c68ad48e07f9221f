package audit

import (
	"bytes"
	"encoding/json"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/spboyer/pwaudit/internal/checklist"
)

// failuresField is the details item key that holds the failure messages.
const failuresField = "failures"

// CheckResults maps check IDs to whether they passed, remembering the order in
// which IDs were first seen.
type CheckResults struct {
	m *orderedmap.OrderedMap[checklist.ID, bool]
}

func newCheckResults() *CheckResults {
	return &CheckResults{m: orderedmap.New[checklist.ID, bool]()}
}

func (r *CheckResults) set(id checklist.ID, passing bool) {
	r.m.Set(id, passing)
}

// Get returns the result for id and whether id was present.
func (r *CheckResults) Get(id checklist.ID) (passing, ok bool) {
	if r == nil {
		return false, false
	}
	return r.m.Get(id)
}

// Len returns the number of distinct IDs.
func (r *CheckResults) Len() int {
	if r == nil {
		return 0
	}
	return r.m.Len()
}

// IDs returns the IDs in first-seen order.
func (r *CheckResults) IDs() []checklist.ID {
	if r == nil {
		return nil
	}
	ids := make([]checklist.ID, 0, r.m.Len())
	for pair := r.m.Oldest(); pair != nil; pair = pair.Next() {
		ids = append(ids, pair.Key)
	}
	return ids
}

// Map returns the results as a plain map.
func (r *CheckResults) Map() map[checklist.ID]bool {
	out := make(map[checklist.ID]bool, r.Len())
	if r == nil {
		return out
	}
	for pair := r.m.Oldest(); pair != nil; pair = pair.Next() {
		out[pair.Key] = pair.Value
	}
	return out
}

// MarshalJSON encodes the results as an object in first-seen order.
func (r *CheckResults) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := r.writeFields(&buf, false); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *CheckResults) writeFields(buf *bytes.Buffer, leadingComma bool) error {
	if r == nil {
		return nil
	}
	for pair := r.m.Oldest(); pair != nil; pair = pair.Next() {
		key, err := json.Marshal(string(pair.Key))
		if err != nil {
			return err
		}
		if leadingComma {
			buf.WriteByte(',')
		}
		leadingComma = true
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatBool(pair.Value))
	}
	return nil
}

// Product is the report record for one audited page.
type Product struct {
	RawValue    bool    `json:"rawValue"`
	Explanation string  `json:"explanation,omitempty"`
	Details     Details `json:"details"`
}

// Details carries the structured payload of a Product.
type Details struct {
	Items []Item `json:"items"`
}

// Item holds the failure messages and per-check results. It serializes as a
// single flat object: a "failures" array alongside one boolean per check ID.
type Item struct {
	Failures []string
	Checks   *CheckResults
}

// MarshalJSON merges Failures and Checks into one object.
func (it Item) MarshalJSON() ([]byte, error) {
	failures := it.Failures
	if failures == nil {
		failures = []string{}
	}
	encoded, err := json.Marshal(failures)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(`{"` + failuresField + `":`)
	buf.Write(encoded)
	if err := it.Checks.writeFields(&buf, true); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// NewProduct shapes a verdict into a report product.
func NewProduct(v *Verdict) *Product {
	return &Product{
		RawValue:    v.Passed,
		Explanation: Explanation(v.FailureMessages),
		Details: Details{
			Items: []Item{{Failures: v.FailureMessages, Checks: v.CheckResults}},
		},
	}
}
