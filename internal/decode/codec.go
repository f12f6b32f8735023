package decode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// Codec is the boundary to the external binary-message codec. Open starts
// an iteration over the embedded sub-messages of one artifact file.
type Codec interface {
	Open(ctx context.Context, path string) (MessageIterator, error)
}

// MessageIterator walks an artifact's sub-messages in order. Next returns
// io.EOF when the artifact is exhausted; any other error is scoped to the
// current sub-message and the iteration may continue.
type MessageIterator interface {
	Next() (map[string]interface{}, error)
	Close() error
}

// ExecCodec drives a decoder executable. The codec itself is a native
// library in the origin system; its Go-side boundary is a subprocess that
// reads the artifact and emits one JSON object per sub-message in a JSON
// array on stdout.
type ExecCodec struct {
	command string
	args    []string
}

func NewExecCodec(command string, args []string) *ExecCodec {
	return &ExecCodec{
		command: command,
		args:    args,
	}
}

func (c *ExecCodec) Open(ctx context.Context, path string) (MessageIterator, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("cannot open artifact: %w", err)
	}

	args := append(append([]string{}, c.args...), path)
	cmd := exec.CommandContext(ctx, c.command, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("decoder command failed: %w (stderr: %s)", err, stderr.String())
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(stdout.Bytes(), &raw); err != nil {
		return nil, fmt.Errorf("decoder output is not a JSON array: %w", err)
	}

	return &sliceIterator{messages: raw}, nil
}

type sliceIterator struct {
	messages []json.RawMessage
	pos      int
}

func (it *sliceIterator) Next() (map[string]interface{}, error) {
	if it.pos >= len(it.messages) {
		return nil, io.EOF
	}

	entry := it.messages[it.pos]
	it.pos++

	var fields map[string]interface{}
	if err := json.Unmarshal(entry, &fields); err != nil {
		return nil, fmt.Errorf("sub-message %d is not an object: %w", it.pos-1, err)
	}
	return fields, nil
}

func (it *sliceIterator) Close() error {
	return nil
}
