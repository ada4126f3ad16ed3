package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	reflectschema "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	// ErrMalformed 不是合法的 JSON 外壳
	ErrMalformed = errors.New("protocol: malformed message")
	// ErrUnknownType 未知的消息类型
	ErrUnknownType = errors.New("protocol: unknown message type")
	// ErrInvalidPayload 载荷不符合 schema
	ErrInvalidPayload = errors.New("protocol: invalid payload")
)

// Validator 由载荷结构体反射出 JSON schema，并在解码前校验入站载荷
type Validator struct {
	schemas map[string]*jsonschema.Schema
	raw     map[string]json.RawMessage
}

// NewValidator 为每种入站消息生成并编译 schema
func NewValidator() (*Validator, error) {
	v := &Validator{
		schemas: make(map[string]*jsonschema.Schema, len(payloadTypes)),
		raw:     make(map[string]json.RawMessage, len(payloadTypes)),
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	for typ, proto := range payloadTypes {
		doc, err := reflectSchema(typ, proto())
		if err != nil {
			return nil, err
		}
		url := "mem://protocol/" + typ + ".json"
		if err := compiler.AddResource(url, bytes.NewReader(doc)); err != nil {
			return nil, fmt.Errorf("protocol: add schema %s: %w", typ, err)
		}
		s, err := compiler.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("protocol: compile schema %s: %w", typ, err)
		}
		v.schemas[typ] = s
		v.raw[typ] = doc
	}
	return v, nil
}

func reflectSchema(typ string, proto any) ([]byte, error) {
	r := reflectschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
		ExpandedStruct:             true,
	}
	s := r.Reflect(proto)
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("protocol: reflect schema %s: %w", typ, err)
	}
	// 去掉方言与 id，由编译器统一按 2020-12 处理
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	delete(doc, "$schema")
	delete(doc, "$id")
	doc["title"] = typ
	return json.Marshal(doc)
}

// Schemas 返回生成的 schema 文档，便于客户端自检
func (v *Validator) Schemas() map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(v.raw))
	for k, b := range v.raw {
		out[k] = b
	}
	return out
}

// Decode 解析外壳、按类型校验载荷并解码为具体结构体
func (v *Validator) Decode(data []byte) (Message, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil || env.Type == "" {
		return Message{}, ErrMalformed
	}
	s, ok := v.schemas[env.Type]
	if !ok {
		return Message{Type: env.Type}, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
	payload := env.Payload
	if len(payload) == 0 || string(payload) == "null" {
		payload = json.RawMessage("{}")
	}
	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return Message{Type: env.Type}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := s.Validate(doc); err != nil {
		return Message{Type: env.Type}, fmt.Errorf("%w: %s", ErrInvalidPayload, summarize(err))
	}
	out := payloadTypes[env.Type]()
	if err := json.Unmarshal(payload, out); err != nil {
		return Message{Type: env.Type}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return Message{Type: env.Type, Payload: out}, nil
}

// summarize 取最具体的一条校验错误，避免把整棵错误树发给客户端
func summarize(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	loc := ve.InstanceLocation
	if loc == "" {
		loc = "payload"
	}
	return fmt.Sprintf("%s: %s", loc, ve.Message)
}
