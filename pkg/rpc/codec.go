// Package rpc holds the wire messages of the groupsplit.v1 services and the
// Connect handler and client constructors for them.
//
// Messages are plain Go structs serialized as JSON, so the services can be
// called with curl or from a browser without generated code:
//
//	curl -H 'Content-Type: application/json' -H 'Authorization: Bearer ...' \
//	    -d '{"group_id":"..."}' http://localhost:8080/groupsplit.v1.BalanceService/GetGroupBalances
package rpc

import (
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
)

// CodecName is the Connect codec name; it selects the application/json
// content type.
const CodecName = "json"

type jsonCodec struct{ name string }

func (c jsonCodec) Name() string { return c.name }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("decode %T: %w", msg, err)
	}
	return nil
}

// WithJSON registers the JSON codec. Handler and client constructors in this
// package apply it automatically.
func WithJSON() connect.Option {
	return connect.WithCodec(jsonCodec{name: CodecName})
}

// Browsers often send "application/json; charset=utf-8", which connect
// resolves to a codec of that exact name.
func withJSONCharset() connect.Option {
	return connect.WithCodec(jsonCodec{name: CodecName + "; charset=utf-8"})
}

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{WithJSON(), withJSONCharset()}, opts...)
}

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{WithJSON()}, opts...)
}
