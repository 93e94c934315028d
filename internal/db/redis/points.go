package redis

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/vecmatch/internal/db"
)

// Upsert stores each point as a HASH in a single DoMulti round-trip.
// Scalar payload values are also written as top-level fields so TAG filters can see them;
// the full payload round-trips through the __payload JSON field.
func (s *Store) Upsert(ctx context.Context, collection string, points []db.Point) error {
	if len(points) == 0 {
		return nil
	}

	cmds := make(rueidis.Commands, len(points))
	for i, p := range points {
		raw, err := json.Marshal(p.Payload)
		if err != nil {
			return &db.Error{Op: db.OpUpsert, Err: fmt.Errorf("%w: point %s payload: %v", db.ErrInvalidPoint, p.ID, err)}
		}

		cmd := s.b().Hset().Key(s.pointKey(collection, p.ID)).FieldValue().
			FieldValue(vectorField, vectorToBytes(p.Vector)).
			FieldValue(payloadField, string(raw))
		for k, v := range p.Payload {
			if text, ok := scalarText(v); ok && db.IsValidIdentifier(k) {
				cmd = cmd.FieldValue(k, text)
			}
		}
		cmds[i] = cmd.Build()
	}

	for i, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpUpsert, Err: fmt.Errorf("point %s: %w", points[i].ID, err)}
		}
	}
	return nil
}

// Delete removes point keys. DEL ignores missing keys.
func (s *Store) Delete(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.pointKey(collection, id)
	}
	cmd := s.b().Del().Key(keys...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpDelete, Err: err}
	}
	return nil
}

// scalarText renders payload values the way filter.Condition.Text renders match values.
func scalarText(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case bool:
		return strconv.FormatBool(x), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), true
	default:
		return "", false
	}
}

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
