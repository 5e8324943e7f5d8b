package handler

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dtroode/sportify-server/internal/model"
)

// decodeField decodes the object under key of in into v using the JSON
// field names of the model types. A missing key leaves v untouched.
func decodeField(in *structpb.Struct, key string, v any) error {
	field, ok := in.GetFields()[key]
	if !ok {
		return nil
	}
	raw, err := field.MarshalJSON()
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "%s: %v", key, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return status.Errorf(codes.InvalidArgument, "%s: %v", key, err)
	}
	return nil
}

func stringField(in *structpb.Struct, key string) string {
	return in.GetFields()[key].GetStringValue()
}

func requiredString(in *structpb.Struct, key string) (string, error) {
	v := stringField(in, key)
	if v == "" {
		return "", status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	return v, nil
}

// pictureField decodes the optional base64 "pictureData" upload.
func pictureField(in *structpb.Struct) ([]byte, string, error) {
	data := stringField(in, "pictureData")
	if data == "" {
		return nil, "", nil
	}
	content, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, "", status.Errorf(codes.InvalidArgument, "pictureData: %v", err)
	}
	return content, stringField(in, "pictureContentType"), nil
}

// toValue converts v to a structpb value through its JSON encoding.
func toValue(v any) (*structpb.Value, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	out := &structpb.Value{}
	if err := out.UnmarshalJSON(raw); err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	return out, nil
}

type eventView struct {
	ID string `json:"id"`
	model.Event
}

type userView struct {
	ID string `json:"id"`
	model.User
}

func eventValue(e model.Event) (*structpb.Value, error) {
	if e.RegisteredUsers == nil {
		e.RegisteredUsers = []string{}
	}
	return toValue(eventView{ID: e.ID, Event: e})
}

func userValue(u model.User) (*structpb.Value, error) {
	if u.RegisteredEvents == nil {
		u.RegisteredEvents = []string{}
	}
	if u.CreatedEvents == nil {
		u.CreatedEvents = []string{}
	}
	return toValue(userView{ID: u.ID, User: u})
}

func listingResponse(listing model.Listing) (*structpb.Struct, error) {
	values := make([]*structpb.Value, 0, len(listing.Events))
	for _, e := range listing.Events {
		v, err := eventValue(e)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"events":    structpb.NewListValue(&structpb.ListValue{Values: values}),
		"fromCache": structpb.NewBoolValue(listing.FromCache),
	}}, nil
}

// outcomeResponse describes a write result. err, when set, explains a partial outcome.
func outcomeResponse(result model.WriteResult, err error) *structpb.Struct {
	fields := map[string]*structpb.Value{
		"outcome": structpb.NewStringValue(result.Outcome.String()),
	}
	if result.FailedSide != "" {
		fields["failedSide"] = structpb.NewStringValue(string(result.FailedSide))
	}
	if err != nil {
		fields["error"] = structpb.NewStringValue(err.Error())
	}
	return &structpb.Struct{Fields: fields}
}
