package qdrant

import (
	"context"
	"fmt"
	"math"
	"strconv"

	pb "github.com/qdrant/go-client/qdrant"

	"github.com/kailas-cloud/vecmatch/internal/db"
)

// Upsert writes points in one request and waits for the write to apply.
// Point ids must be UUIDs; Qdrant rejects anything else.
func (s *Store) Upsert(ctx context.Context, collection string, points []db.Point) error {
	if len(points) == 0 {
		return nil
	}

	structs := make([]*pb.PointStruct, len(points))
	for i, p := range points {
		payload, err := pb.TryValueMap(integralNumbers(p.Payload))
		if err != nil {
			return &db.Error{Op: db.OpUpsert, Err: fmt.Errorf("%w: point %s payload: %v", db.ErrInvalidPoint, p.ID, err)}
		}
		structs[i] = &pb.PointStruct{
			Id:      pb.NewIDUUID(p.ID),
			Vectors: pb.NewVectorsDense(p.Vector),
			Payload: payload,
		}
	}

	_, err := s.points.Upsert(s.auth(ctx), &pb.UpsertPoints{
		CollectionName: collection,
		Wait:           pb.PtrOf(true),
		Points:         structs,
	})
	if err != nil {
		return wrap(db.OpUpsert, err)
	}
	return nil
}

// Delete removes points by id. Qdrant ignores ids it does not hold.
func (s *Store) Delete(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	pids := make([]*pb.PointId, len(ids))
	for i, id := range ids {
		pids[i] = pb.NewIDUUID(id)
	}

	_, err := s.points.Delete(s.auth(ctx), &pb.DeletePoints{
		CollectionName: collection,
		Wait:           pb.PtrOf(true),
		Points:         pb.NewPointsSelector(pids...),
	})
	if err != nil {
		return wrap(db.OpDelete, err)
	}
	return nil
}

// integralNumbers stores whole JSON numbers as integers so integer match conditions see them.
func integralNumbers(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = integralValue(v)
	}
	return out
}

func integralValue(v any) any {
	switch x := v.(type) {
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			return int64(x)
		}
		return x
	case map[string]any:
		return integralNumbers(x)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = integralValue(item)
		}
		return out
	default:
		return v
	}
}

func pointID(id *pb.PointId) string {
	if u := id.GetUuid(); u != "" {
		return u
	}
	return strconv.FormatUint(id.GetNum(), 10)
}

// payloadFromValues converts Qdrant values back to JSON-shaped Go values.
func payloadFromValues(m map[string]*pb.Value) map[string]any {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = valueToAny(v)
	}
	return out
}

func valueToAny(v *pb.Value) any {
	switch k := v.GetKind().(type) {
	case *pb.Value_StringValue:
		return k.StringValue
	case *pb.Value_IntegerValue:
		return k.IntegerValue
	case *pb.Value_DoubleValue:
		return k.DoubleValue
	case *pb.Value_BoolValue:
		return k.BoolValue
	case *pb.Value_StructValue:
		return payloadFromValues(k.StructValue.GetFields())
	case *pb.Value_ListValue:
		items := k.ListValue.GetValues()
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = valueToAny(item)
		}
		return out
	default:
		return nil
	}
}
