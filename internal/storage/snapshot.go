package storage

import (
	"encoding/json"
	"sort"
	"time"
)

// The wire form of a snapshot matches the legacy state file:
//
//	{"projects": {"<id>": {...}}, "votes": {"<id>": [voter, ...]}}
//
// Project fields this version does not know about are kept in Extra and
// written back verbatim on export.

var knownProjectFields = map[string]bool{
	"id": true, "name": true, "symbol": true, "logo": true,
	"contract_or_wallet": true, "description": true, "chain": true,
	"submitted_by": true, "submitted_at": true,
	"payment_verified": true, "listed": true,
}

type projectWire struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Symbol           string     `json:"symbol"`
	LogoURL          string     `json:"logo,omitempty"`
	ContractOrWallet string     `json:"contract_or_wallet,omitempty"`
	Description      string     `json:"description"`
	Chain            string     `json:"chain"`
	SubmittedBy      flexString `json:"submitted_by"`
	SubmittedAt      time.Time  `json:"submitted_at"`
	PaymentVerified  bool       `json:"payment_verified"`
	Listed           bool       `json:"listed"`
}

// flexString accepts both string and numeric JSON values. Legacy state
// files store submitter ids as bare numbers.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	if string(data) == "null" {
		*f = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type snapshotWire struct {
	Projects map[string]json.RawMessage `json:"projects"`
	Votes    map[string][]string        `json:"votes"`
}

// MarshalJSON encodes the snapshot in the legacy state-file schema.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	wire := snapshotWire{
		Projects: make(map[string]json.RawMessage, len(s.Projects)),
		Votes:    s.Votes,
	}
	if wire.Votes == nil {
		wire.Votes = map[string][]string{}
	}
	for _, p := range s.Projects {
		raw, err := marshalProject(p)
		if err != nil {
			return nil, err
		}
		wire.Projects[p.ID] = raw
	}
	return json.Marshal(wire)
}

// UnmarshalJSON decodes the legacy state-file schema. The projects map
// carries no order, so submission order is recovered by sorting on
// submitted_at (then id, for determinism).
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var wire snapshotWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	s.Votes = wire.Votes
	if s.Votes == nil {
		s.Votes = map[string][]string{}
	}
	s.Projects = make([]*Project, 0, len(wire.Projects))
	for id, raw := range wire.Projects {
		p, err := unmarshalProject(raw)
		if err != nil {
			return err
		}
		if p.ID == "" {
			p.ID = id
		}
		s.Projects = append(s.Projects, p)
	}
	sort.Slice(s.Projects, func(i, j int) bool {
		a, b := s.Projects[i], s.Projects[j]
		if !a.SubmittedAt.Equal(b.SubmittedAt) {
			return a.SubmittedAt.Before(b.SubmittedAt)
		}
		return a.ID < b.ID
	})
	return nil
}

func marshalProject(p *Project) (json.RawMessage, error) {
	known, err := json.Marshal(projectWire{
		ID:               p.ID,
		Name:             p.Name,
		Symbol:           p.Symbol,
		LogoURL:          p.LogoURL,
		ContractOrWallet: p.ContractOrWallet,
		Description:      p.Description,
		Chain:            p.Chain,
		SubmittedBy:      flexString(p.SubmittedBy),
		SubmittedAt:      p.SubmittedAt,
		PaymentVerified:  p.PaymentVerified,
		Listed:           p.Listed,
	})
	if err != nil {
		return nil, err
	}
	if len(p.Extra) == 0 {
		return known, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(known, &merged); err != nil {
		return nil, err
	}
	for k, v := range p.Extra {
		if !knownProjectFields[k] {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

func unmarshalProject(raw json.RawMessage) (*Project, error) {
	var wire projectWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	p := &Project{
		ID:               wire.ID,
		Name:             wire.Name,
		Symbol:           wire.Symbol,
		LogoURL:          wire.LogoURL,
		ContractOrWallet: wire.ContractOrWallet,
		Description:      wire.Description,
		Chain:            wire.Chain,
		SubmittedBy:      string(wire.SubmittedBy),
		SubmittedAt:      wire.SubmittedAt,
		PaymentVerified:  wire.PaymentVerified,
		Listed:           wire.Listed,
	}
	for k, v := range fields {
		if knownProjectFields[k] {
			continue
		}
		if p.Extra == nil {
			p.Extra = make(map[string]json.RawMessage)
		}
		p.Extra[k] = v
	}
	return p, nil
}
