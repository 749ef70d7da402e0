package nezha

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"time"
)

// neverExpirePrefix marks an end date that means "no expiry".
const neverExpirePrefix = "0000-00-00"

// NoteData is the structured metadata an operator may embed in a server's
// public note. Either part may be nil.
type NoteData struct {
	Billing *BillingInfo `json:"billingDataMod,omitempty"`
	Plan    *PlanInfo    `json:"planDataMod,omitempty"`
}

// Empty reports whether the note carried no recognized metadata.
func (n NoteData) Empty() bool {
	return n.Billing == nil && n.Plan == nil
}

// BillingInfo is the billing schedule for a server. All values are kept as
// the operator wrote them.
type BillingInfo struct {
	StartDate   string `json:"startDate,omitempty"`
	EndDate     string `json:"endDate,omitempty"`
	AutoRenewal string `json:"autoRenewal,omitempty"`
	Cycle       string `json:"cycle,omitempty"`
	Amount      string `json:"amount,omitempty"`
}

// PlanInfo describes the purchased plan. Empty strings mean absent.
type PlanInfo struct {
	Bandwidth    string `json:"bandwidth,omitempty"`
	TrafficVol   string `json:"trafficVol,omitempty"`
	TrafficType  string `json:"trafficType,omitempty"`
	IPv4         string `json:"IPv4,omitempty"`
	IPv6         string `json:"IPv6,omitempty"`
	NetworkRoute string `json:"networkRoute,omitempty"`
	Extra        string `json:"extra,omitempty"`
}

// Labels returns the non-empty plan labels in display order.
func (p PlanInfo) Labels() []string {
	var out []string
	for _, v := range []string{p.Bandwidth, p.TrafficVol, p.TrafficType, p.NetworkRoute, p.Extra} {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

// AmountState classifies the billing amount for badge display.
type AmountState int

const (
	AmountNone AmountState = iota
	AmountPrice
	AmountFree
	AmountMetered
)

// String returns a short name for the state.
func (a AmountState) String() string {
	switch a {
	case AmountPrice:
		return "price"
	case AmountFree:
		return "free"
	case AmountMetered:
		return "metered"
	default:
		return "none"
	}
}

// ParseNote extracts billing and plan metadata from a raw public note.
// Notes that are empty, not JSON, or not shaped as expected yield absent
// parts; it never fails.
func ParseNote(raw string) NoteData {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return NoteData{}
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &top); err != nil {
		return NoteData{}
	}

	var out NoteData
	if fields, ok := decodeObject(top["billingDataMod"]); ok {
		out.Billing = &BillingInfo{
			StartDate:   fields["startDate"],
			EndDate:     fields["endDate"],
			AutoRenewal: fields["autoRenewal"],
			Cycle:       fields["cycle"],
			Amount:      fields["amount"],
		}
	}
	if fields, ok := decodeObject(top["planDataMod"]); ok {
		out.Plan = &PlanInfo{
			Bandwidth:    fields["bandwidth"],
			TrafficVol:   fields["trafficVol"],
			TrafficType:  fields["trafficType"],
			IPv4:         fields["IPv4"],
			IPv6:         fields["IPv6"],
			NetworkRoute: fields["networkRoute"],
			Extra:        fields["extra"],
		}
	}
	return out
}

// decodeObject reads a JSON object into string values. Scalars are
// stringified; nested values and nulls are dropped.
func decodeObject(data json.RawMessage) (map[string]string, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, false
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, false
	}

	fields := make(map[string]string, len(obj))
	for k, v := range obj {
		if s, ok := scalarString(v); ok {
			fields[k] = s
		}
	}
	return fields, true
}

func scalarString(v json.RawMessage) (string, bool) {
	v = bytes.TrimSpace(v)
	if len(v) == 0 {
		return "", false
	}
	switch v[0] {
	case '"':
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return "", false
		}
		return s, true
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(v, &b); err != nil {
			return "", false
		}
		if b {
			return "true", true
		}
		return "false", true
	case 'n', '{', '[':
		return "", false
	default:
		var n json.Number
		if err := json.Unmarshal(v, &n); err != nil {
			return "", false
		}
		return n.String(), true
	}
}

// NeverExpires reports whether the end date is the all-zero sentinel.
func (b BillingInfo) NeverExpires() bool {
	return strings.HasPrefix(strings.TrimSpace(b.EndDate), neverExpirePrefix)
}

// EndTime parses the end date. It reports false for the never-expire
// sentinel and for dates it cannot read.
func (b BillingInfo) EndTime() (time.Time, bool) {
	if b.NeverExpires() {
		return time.Time{}, false
	}
	end := strings.TrimSpace(b.EndDate)
	if t, ok := parseTime(end); ok {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", end); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// DaysLeft returns whole days from now until the end date, negative once
// expired. ok is false when the server never expires or the end date is
// unreadable; no day count should be shown then.
func (b BillingInfo) DaysLeft(now time.Time) (days int, ok bool) {
	end, ok := b.EndTime()
	if !ok {
		return 0, false
	}
	return DaysBetween(end, now), true
}

// AmountState classifies the amount: "0" is free, "-1" is usage based,
// other non-empty values are a price per cycle.
func (b BillingInfo) AmountState() AmountState {
	switch strings.TrimSpace(b.Amount) {
	case "":
		return AmountNone
	case "0":
		return AmountFree
	case "-1":
		return AmountMetered
	default:
		return AmountPrice
	}
}

// AmountLabel renders the price badge, or "" when there is none.
func (b BillingInfo) AmountLabel() string {
	switch b.AmountState() {
	case AmountPrice:
		amount := strings.TrimSpace(b.Amount)
		if c := strings.TrimSpace(b.Cycle); c != "" {
			return amount + "/" + c
		}
		return amount
	case AmountFree:
		return "Free"
	case AmountMetered:
		return "Usage-based"
	default:
		return ""
	}
}

// BillingStatus is the evaluated expiry state at a reference time.
type BillingStatus struct {
	NeverExpires bool
	// Known is false when the end date could not be read.
	Known    bool
	DaysLeft int
	Expired  bool
	Amount   AmountState
}

// Status evaluates the billing schedule at now.
func (b BillingInfo) Status(now time.Time) BillingStatus {
	st := BillingStatus{
		NeverExpires: b.NeverExpires(),
		Amount:       b.AmountState(),
	}
	if st.NeverExpires {
		st.Known = true
		return st
	}
	st.DaysLeft, st.Known = b.DaysLeft(now)
	st.Expired = st.Known && st.DaysLeft < 0
	return st
}

// DaysBetween returns floor((end - now) / 24h).
func DaysBetween(end, now time.Time) int {
	d := end.Sub(now)
	return int(math.Floor(float64(d) / float64(24*time.Hour)))
}
