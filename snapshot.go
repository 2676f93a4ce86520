package autopilot

import (
	"encoding/json"
	"fmt"

	"github.com/joonazan/vec2"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// PerceptionSnapshot is one raw observation from the capture side. Points
// are in capture coordinates when Region is set, grid coordinates
// otherwise. Body is head first unless Head is given, in which case it may
// be in any order. A nil Food or empty Body means that part of the capture
// failed.
type PerceptionSnapshot struct {
	Body     []vec2.Vector
	Head     *vec2.Vector
	Food     *vec2.Vector
	Region   *Bounds
	Score    *int
	GameOver bool
}

const snapshotSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "body": {"type": "array", "items": {"$ref": "#/definitions/point"}},
    "head": {"$ref": "#/definitions/point"},
    "food": {"$ref": "#/definitions/point"},
    "region": {
      "type": "object",
      "additionalProperties": false,
      "required": ["origin", "size"],
      "properties": {
        "origin": {"$ref": "#/definitions/point"},
        "size": {"$ref": "#/definitions/point"}
      }
    },
    "score": {"type": "integer", "minimum": 0},
    "game_over": {"type": "boolean"}
  },
  "definitions": {
    "point": {
      "type": "array",
      "items": {"type": "number"},
      "minItems": 2,
      "maxItems": 2
    }
  }
}`

var snapshotSchema = jsonschema.MustCompileString("snapshot.schema.json", snapshotSchemaJSON)

type point [2]float64

func (p point) vec() vec2.Vector { return vec2.Vector{X: p[0], Y: p[1]} }

func toPoint(v vec2.Vector) point { return point{v.X, v.Y} }

type snapshotDoc struct {
	Body     []point    `json:"body,omitempty"`
	Head     *point     `json:"head,omitempty"`
	Food     *point     `json:"food,omitempty"`
	Region   *regionDoc `json:"region,omitempty"`
	Score    *int       `json:"score,omitempty"`
	GameOver bool       `json:"game_over,omitempty"`
}

type regionDoc struct {
	Origin point `json:"origin"`
	Size   point `json:"size"`
}

// DecodeSnapshot validates a JSON snapshot document and decodes it.
func DecodeSnapshot(data []byte) (PerceptionSnapshot, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return PerceptionSnapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if err := snapshotSchema.Validate(raw); err != nil {
		return PerceptionSnapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	var doc snapshotDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return PerceptionSnapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	s := PerceptionSnapshot{Score: doc.Score, GameOver: doc.GameOver}
	for _, p := range doc.Body {
		s.Body = append(s.Body, p.vec())
	}
	if doc.Head != nil {
		v := doc.Head.vec()
		s.Head = &v
	}
	if doc.Food != nil {
		v := doc.Food.vec()
		s.Food = &v
	}
	if doc.Region != nil {
		s.Region = &Bounds{Origin: doc.Region.Origin.vec(), Size: doc.Region.Size.vec()}
	}
	return s, nil
}

func (s PerceptionSnapshot) MarshalJSON() ([]byte, error) {
	doc := snapshotDoc{Score: s.Score, GameOver: s.GameOver}
	for _, v := range s.Body {
		doc.Body = append(doc.Body, toPoint(v))
	}
	if s.Head != nil {
		p := toPoint(*s.Head)
		doc.Head = &p
	}
	if s.Food != nil {
		p := toPoint(*s.Food)
		doc.Food = &p
	}
	if s.Region != nil {
		doc.Region = &regionDoc{Origin: toPoint(s.Region.Origin), Size: toPoint(s.Region.Size)}
	}
	return json.Marshal(doc)
}

func (s *PerceptionSnapshot) UnmarshalJSON(data []byte) error {
	v, err := DecodeSnapshot(data)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// GridSnapshot builds a snapshot already in grid coordinates, head first.
func GridSnapshot(snake []Cell, food Cell, score int) PerceptionSnapshot {
	s := PerceptionSnapshot{Score: &score}
	for _, c := range snake {
		s.Body = append(s.Body, c.Vec())
	}
	f := food.Vec()
	s.Food = &f
	return s
}
