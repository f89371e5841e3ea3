package rpcclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// jsonRPCHandler is a minimal JSON-RPC 2.0 server used to exercise
// Client.Call without pulling in a domain-specific server package.
func jsonRPCHandler(t *testing.T, results map[string]interface{}) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		resp := response{JSONRPC: "2.0", ID: req.ID}
		val, ok := results[req.Method]
		if !ok {
			resp.Error = &rpcError{Code: -32601, Message: "method not found"}
		} else if errVal, isErr := val.(*rpcError); isErr {
			resp.Error = errVal
		} else {
			data, err := json.Marshal(val)
			if err != nil {
				t.Fatalf("marshal result: %v", err)
			}
			resp.Result = data
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

func TestClient_Call_Success(t *testing.T) {
	srv := httptest.NewServer(jsonRPCHandler(t, map[string]interface{}{
		"get_block_height": map[string]uint64{"height": 42},
	}))
	defer srv.Close()

	client := New(srv.URL)
	var result struct {
		Height uint64 `json:"height"`
	}
	if err := client.Call("get_block_height", nil, &result); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if result.Height != 42 {
		t.Errorf("height = %d, want 42", result.Height)
	}
}

func TestClient_Call_RPCError(t *testing.T) {
	srv := httptest.NewServer(jsonRPCHandler(t, map[string]interface{}{
		"put_transaction": &rpcError{Code: -32000, Message: "invalid transaction"},
	}))
	defer srv.Close()

	client := New(srv.URL)
	err := client.Call("put_transaction", map[string]string{"tx": "deadbeef"}, nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	rpcErr, ok := err.(*RPCError)
	if !ok {
		t.Fatalf("expected *RPCError, got %T", err)
	}
	if rpcErr.Code != -32000 {
		t.Errorf("code = %d, want -32000", rpcErr.Code)
	}
}

func TestClient_Call_MethodNotFound(t *testing.T) {
	srv := httptest.NewServer(jsonRPCHandler(t, map[string]interface{}{}))
	defer srv.Close()

	client := New(srv.URL)
	err := client.Call("no_such_method", nil, nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	rpcErr, ok := err.(*RPCError)
	if !ok || rpcErr.Code != -32601 {
		t.Fatalf("expected method-not-found RPCError, got %v", err)
	}
}

func TestClient_Call_TransportError(t *testing.T) {
	client := NewWithTimeout("http://127.0.0.1:1/", 0)
	err := client.Call("get_block_height", nil, nil)
	if err == nil {
		t.Fatal("expected a connection error")
	}
}

func TestClient_Call_NilResultIgnoresBody(t *testing.T) {
	srv := httptest.NewServer(jsonRPCHandler(t, map[string]interface{}{
		"put_transaction": map[string]bool{"ok": true},
	}))
	defer srv.Close()

	client := New(srv.URL)
	if err := client.Call("put_transaction", nil, nil); err != nil {
		t.Fatalf("Call: %v", err)
	}
}
