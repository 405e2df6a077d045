package post

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// wirePost mirrors Post with every field left raw so one badly typed field
// does not cost the whole record.
type wirePost struct {
	Number    json.RawMessage `json:"number"`
	ID        json.RawMessage `json:"id"`
	Title     json.RawMessage `json:"title"`
	Document  json.RawMessage `json:"document"`
	CreatedAt json.RawMessage `json:"created_at"`
	User      json.RawMessage `json:"user"`
	Metrics   json.RawMessage `json:"metrics"`
	ViewCount json.RawMessage `json:"view_count"`
	EdURL     json.RawMessage `json:"ed_url"`
}

// UnmarshalJSON decodes a record field by field. The record itself must be
// a JSON object; a field of the wrong type is treated as absent.
func (p *Post) UnmarshalJSON(data []byte) error {
	var w wirePost
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*p = Post{
		Number:    lenientID(w.Number),
		ID:        lenientID(w.ID),
		Title:     lenientString(w.Title),
		Document:  lenientString(w.Document),
		CreatedAt: lenientString(w.CreatedAt),
		ViewCount: lenientFloat(w.ViewCount),
		EdURL:     lenientString(w.EdURL),
	}

	var u struct {
		Name json.RawMessage `json:"name"`
	}
	if isObject(w.User) && json.Unmarshal(w.User, &u) == nil {
		p.User = &User{Name: lenientString(u.Name)}
	}

	var m struct {
		HomeworkID json.RawMessage `json:"homework_id"`
		ModelName  json.RawMessage `json:"model_name"`
	}
	if isObject(w.Metrics) && json.Unmarshal(w.Metrics, &m) == nil {
		p.Metrics = &Metrics{
			HomeworkID: lenientString(m.HomeworkID),
			ModelName:  lenientString(m.ModelName),
		}
	}
	return nil
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

func lenientID(raw json.RawMessage) ID {
	if len(raw) == 0 {
		return ""
	}
	var id ID
	if id.UnmarshalJSON(raw) != nil {
		return ""
	}
	return id
}

// lenientString accepts strings, and numbers as their literal text.
func lenientString(raw json.RawMessage) *string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	switch {
	case raw[0] == '"':
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return nil
		}
		return &s
	case raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9'):
		var n json.Number
		if json.Unmarshal(raw, &n) != nil {
			return nil
		}
		s := n.String()
		return &s
	}
	return nil
}

// lenientFloat accepts finite numbers and numeric strings.
func lenientFloat(raw json.RawMessage) *float64 {
	s := lenientString(raw)
	if s == nil {
		return nil
	}
	f, err := strconv.ParseFloat(*s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
