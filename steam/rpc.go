package steam

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"
)

// killGrace is how long the sidecar gets to exit after SIGTERM.
const killGrace = time.Second

// rpcConn speaks newline-delimited JSON-RPC 2.0 with the sidecar over its
// stdin/stdout. Requests are serialized; one is in flight at a time.
type rpcConn struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
	closer io.Closer
	mu     sync.Mutex
	nextID atomic.Int64
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      *int64 `json:"id,omitempty"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *int64          `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("sidecar error %d: %s", e.Code, e.Message)
}

func newRPCConn(w io.WriteCloser, r io.ReadCloser) *rpcConn {
	c := &rpcConn{
		stdin:  w,
		stdout: bufio.NewReader(r),
		closer: r,
	}
	c.nextID.Store(1)
	return c
}

// startSidecar spawns the sidecar process with piped stdio.
func startSidecar(command string, args []string, env map[string]string) (*rpcConn, error) {
	cmd := exec.Command(command, args...)
	cmd.Env = cmd.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	setProcessGroup(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("spawn failed: %w", err)
	}

	c := newRPCConn(stdin, stdout)
	c.cmd = cmd
	return c, nil
}

// call sends a request and decodes the result into out, which may be nil.
func (c *rpcConn) call(method string, params any, out any) error {
	raw, err := c.sendRequest(method, params)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding %s result: %w", method, err)
	}
	return nil
}

// sendRequest writes a request and reads lines until the matching response.
func (c *rpcConn) sendRequest(method string, params any) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID.Add(1) - 1
	data, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      &id,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, err
	}
	data = append(data, '\n')

	if _, err := c.stdin.Write(data); err != nil {
		return nil, fmt.Errorf("write request: %w", err)
	}

	for {
		line, err := c.stdout.ReadBytes('\n')
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}

		var resp rpcResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			// Sidecars may print diagnostics on stdout.
			continue
		}
		if resp.ID == nil || *resp.ID != id {
			continue
		}
		if resp.Error != nil {
			return nil, resp.Error
		}
		return resp.Result, nil
	}
}

// notify sends a notification; no response is expected.
func (c *rpcConn) notify(method string, params any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return
	}
	data = append(data, '\n')
	_, _ = c.stdin.Write(data)
}

// kill closes the pipes and stops the process. It does not take the request
// lock, so it can unblock a call stuck reading.
func (c *rpcConn) kill() {
	if c.stdin != nil {
		c.stdin.Close()
	}
	if c.closer != nil {
		c.closer.Close()
	}
	if c.cmd == nil || c.cmd.Process == nil {
		return
	}

	exited := make(chan struct{})
	go func() {
		_ = c.cmd.Wait()
		close(exited)
	}()

	terminateGroup(c.cmd)
	select {
	case <-exited:
	case <-time.After(killGrace):
		killGroup(c.cmd)
		<-exited
	}
}
