// control/config.go
// Author: momentics <momentics@gmail.com>
//
// YAML loading of receiver decoding limits.

package control

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/momentics/wsrecv/protocol"
)

// File is the on-disk layout:
//
//	receiver:
//	  max_frame_payload: 1048576
//	  allow_reserved_bits: false
//	  read_buffer_size: 4096
type File struct {
	Receiver protocol.Config `yaml:"receiver"`
}

// ParseConfig decodes YAML on top of protocol.DefaultConfig, so omitted
// fields keep their defaults. Unknown fields are rejected.
func ParseConfig(data []byte) (protocol.Config, error) {
	f := File{Receiver: protocol.DefaultConfig()}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return protocol.Config{}, fmt.Errorf("parse receiver config: %w", err)
	}
	if err := f.Receiver.Validate(); err != nil {
		return protocol.Config{}, fmt.Errorf("parse receiver config: %w", err)
	}
	return f.Receiver, nil
}

// LoadConfig reads and parses the YAML file at path.
func LoadConfig(path string) (protocol.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return protocol.Config{}, fmt.Errorf("load receiver config: %w", err)
	}
	return ParseConfig(data)
}
