package persist

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"
)

// Version is the current save format version.
const Version = 1

// Header is written as a single JSON line ahead of the body so tools can
// read it without decoding the records.
type Header struct {
	Version int    `json:"version" yaml:"version"`
	Tick    uint64 `json:"tick" yaml:"tick"`
}

// SaveFile is a complete floor: one record per machine in placement order.
type SaveFile struct {
	Header  Header   `yaml:"header"`
	Records []Record `yaml:"records"`
}

// WriteSave writes save to path as a zstd stream holding a JSON header line
// followed by a YAML body.
func WriteSave(path string, save SaveFile) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating save directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating save file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("zstd writer: %w", err)
	}
	defer func() {
		if err != nil {
			_ = enc.Close()
		}
	}()
	bw := bufio.NewWriter(enc)

	if save.Header.Version == 0 {
		save.Header.Version = Version
	}
	hb, err := json.Marshal(save.Header)
	if err != nil {
		return fmt.Errorf("encoding header: %w", err)
	}
	if _, err := bw.Write(append(hb, '\n')); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	ye := yaml.NewEncoder(bw)
	if err := ye.Encode(&save); err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}
	if err := ye.Close(); err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flushing save: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("closing zstd stream: %w", err)
	}
	return nil
}

// ReadSave reads a file written by WriteSave.
func ReadSave(path string) (SaveFile, error) {
	var save SaveFile
	f, err := os.Open(path)
	if err != nil {
		return save, fmt.Errorf("opening save file: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return save, fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()

	br := bufio.NewReader(dec)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return save, fmt.Errorf("reading header: %w", err)
	}
	var hdr Header
	if err := json.Unmarshal(line, &hdr); err != nil {
		return save, fmt.Errorf("decoding header: %w", err)
	}
	if hdr.Version > Version {
		return save, fmt.Errorf("save version %d is newer than supported %d", hdr.Version, Version)
	}

	if err := yaml.NewDecoder(br).Decode(&save); err != nil {
		return save, fmt.Errorf("decoding records: %w", err)
	}
	save.Header = hdr
	return save, nil
}
