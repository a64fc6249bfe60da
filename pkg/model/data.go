package model

import (
	"bytes"
	"io"
	"io/ioutil"

	"go.uber.org/multierr"
)

// ConfigData is the content of one revision of a configuration file.
//
// Content is opened on demand, so large files need not be held in memory.
type ConfigData struct {
	size int64
	open func() (io.ReadCloser, error)
}

// NewConfigData wraps some in-memory content
func NewConfigData(b []byte) *ConfigData {
	return &ConfigData{
		size: int64(len(b)),
		open: func() (io.ReadCloser, error) {
			return ioutil.NopCloser(bytes.NewReader(b)), nil
		},
	}
}

// NewConfigDataFrom wraps content retrieved on demand
func NewConfigDataFrom(size int64, open func() (io.ReadCloser, error)) *ConfigData {
	return &ConfigData{size: size, open: open}
}

// Len is the size of the content, in bytes
func (d *ConfigData) Len() int64 {
	return d.size
}

// Open the content for reading. The caller must close the returned reader.
func (d *ConfigData) Open() (io.ReadCloser, error) {
	return d.open()
}

// Bytes materializes the full content in memory
func (d *ConfigData) Bytes() (b []byte, err error) {
	rdr, err := d.open()
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Append(err, rdr.Close())
	}()
	return ioutil.ReadAll(rdr)
}

// Text returns the content as a string
func (d *ConfigData) Text() (string, error) {
	b, err := d.Bytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// WriteTo streams the content to some writer
func (d *ConfigData) WriteTo(w io.Writer) (n int64, err error) {
	rdr, err := d.open()
	if err != nil {
		return 0, err
	}
	defer func() {
		err = multierr.Append(err, rdr.Close())
	}()
	return io.Copy(w, rdr)
}
