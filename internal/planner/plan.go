// Package planner holds the optional advisory planner: hosted LLM providers
// that turn a query into a structured Plan, and the rules for merging that
// plan into heuristic criteria.
package planner

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ErrNoPlanObject is returned when a response holds no JSON object
var ErrNoPlanObject = errors.New("no JSON object in planner response")

// Tristate is a plan boolean that may be absent
type Tristate int8

const (
	Unset Tristate = iota
	True
	False
)

// TristateOf converts a concrete bool
func TristateOf(b bool) Tristate {
	if b {
		return True
	}
	return False
}

// IsSet reports whether a value was supplied
func (t Tristate) IsSet() bool { return t != Unset }

// Bool returns the value; Unset reads as false, so check IsSet first
func (t Tristate) Bool() bool { return t == True }

func (t Tristate) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unset"
	}
}

// Plan is the advisory planner's structured reading of a query. Zero values
// (Unset, empty strings, nil slices, 0 limits) mean "no opinion".
type Plan struct {
	IncludeMessages  Tristate
	IncludeCalls     Tristate
	IncludeLocations Tristate
	IncludeGraph     Tristate
	ForeignOnly      Tristate

	PersonNames []string
	Topics      []string

	StartDate string
	EndDate   string
	TimeAfter string

	ResultLimit   int
	LocationLimit int

	// Malformed lists fields that were present but could not be decoded
	Malformed []string
}

// ParsePlan extracts the outermost JSON object from raw model output,
// repairs it and decodes it leniently. A field that cannot be decoded is
// dropped on its own; the rest of the plan survives.
func ParsePlan(raw string) (*Plan, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return nil, ErrNoPlanObject
	}
	blob := raw[start : end+1]
	if repaired, err := jsonrepair.JSONRepair(blob); err == nil {
		blob = repaired
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(blob)))
	dec.UseNumber()
	var data map[string]interface{}
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}

	d := fieldDecoder{data: data}
	p := &Plan{
		IncludeMessages:  d.tristate("include_messages"),
		IncludeCalls:     d.tristate("include_calls"),
		IncludeLocations: d.tristate("include_locations"),
		IncludeGraph:     d.tristate("include_graph"),
		ForeignOnly:      d.tristate("foreign_only"),
		PersonNames:      d.stringList("person_names"),
		StartDate:        d.str("start_date"),
		EndDate:          d.str("end_date"),
		TimeAfter:        d.str("time_after"),
		ResultLimit:      d.positiveInt("result_limit"),
		LocationLimit:    d.positiveInt("location_limit"),
	}
	for _, topic := range d.stringList("topics") {
		p.Topics = append(p.Topics, strings.ToLower(topic))
	}
	p.Malformed = d.malformed
	return p, nil
}

type fieldDecoder struct {
	data      map[string]interface{}
	malformed []string
}

func (d *fieldDecoder) get(key string) (interface{}, bool) {
	v, ok := d.data[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func (d *fieldDecoder) drop(key string) {
	d.malformed = append(d.malformed, key)
}

func (d *fieldDecoder) tristate(key string) Tristate {
	v, ok := d.get(key)
	if !ok {
		return Unset
	}
	switch val := v.(type) {
	case bool:
		return TristateOf(val)
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "yes":
			return True
		case "false", "no":
			return False
		}
	}
	d.drop(key)
	return Unset
}

// positiveInt returns 0 for absent, malformed and non-positive values
func (d *fieldDecoder) positiveInt(key string) int {
	v, ok := d.get(key)
	if !ok {
		return 0
	}
	var n int64
	var err error
	switch val := v.(type) {
	case json.Number:
		n, err = val.Int64()
	case string:
		n, err = strconv.ParseInt(strings.TrimSpace(val), 10, 64)
	default:
		err = fmt.Errorf("unexpected %T", v)
	}
	if err != nil {
		d.drop(key)
		return 0
	}
	if n <= 0 {
		return 0
	}
	return int(n)
}

func (d *fieldDecoder) str(key string) string {
	v, ok := d.get(key)
	if !ok {
		return ""
	}
	s, isStr := v.(string)
	if !isStr {
		d.drop(key)
		return ""
	}
	return strings.TrimSpace(s)
}

func (d *fieldDecoder) stringList(key string) []string {
	v, ok := d.get(key)
	if !ok {
		return nil
	}
	items, isList := v.([]interface{})
	if !isList {
		d.drop(key)
		return nil
	}
	var out []string
	for _, item := range items {
		s, isStr := item.(string)
		if !isStr {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
