package publish

import (
	"encoding/json"
	"fmt"

	"github.com/golang/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Codec serializes updates and health reports.
type Codec interface {
	Name() string
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
}

// Codecs.
var (
	// ProtoCodec encodes values as a google.protobuf.Struct message whose
	// fields follow the JSON field names.
	ProtoCodec Codec = protoCodec{}
	// JSONCodec encodes values as JSON.
	JSONCodec Codec = jsonCodec{}
)

// DefaultCodec is used when no codec is configured.
var DefaultCodec = ProtoCodec

// CodecByName finds a codec by name.
func CodecByName(name string) (Codec, error) {
	switch name {
	case "":
		return DefaultCodec, nil
	case ProtoCodec.Name():
		return ProtoCodec, nil
	case JSONCodec.Name():
		return JSONCodec, nil
	}
	return nil, fmt.Errorf("unknown codec %q", name)
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

type protoCodec struct{}

func (protoCodec) Name() string { return "proto" }

func (protoCodec) Marshal(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var fields map[string]interface{}
	if err = json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("value is not an object: %v", err)
	}
	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(msg)
}

func (protoCodec) Unmarshal(data []byte, v interface{}) error {
	var msg structpb.Struct
	if err := proto.Unmarshal(data, &msg); err != nil {
		return err
	}
	js, err := json.Marshal(msg.AsMap())
	if err != nil {
		return err
	}
	return json.Unmarshal(js, v)
}
