package mwalib

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
)

// Stream is the generic reader/seeker this module's file-backed components
// read through. It is deliberately narrow so that a metafits, gpubox or
// voltage path can be backed by a local file, a fully-buffered in-memory
// copy, or any URI a TileDB VFS understands (S3, etc.), without the rest of
// the module caring which.
//
// Grounded on sixy6e/go-gsf's reader.go Stream/GenericStream.
type Stream interface {
	io.Reader
	io.Seeker
	io.Closer
}

// vfsStream adapts a *tiledb.VFSfh to the Stream interface and carries the
// VFS/context/config it was opened through so Close can release them.
type vfsStream struct {
	handle *tiledb.VFSfh
	vfs    *tiledb.VFS
	ctx    *tiledb.Context
	config *tiledb.Config
}

func (s *vfsStream) Read(p []byte) (int, error)                 { return s.handle.Read(p) }
func (s *vfsStream) Seek(offset int64, whence int) (int64, error) { return s.handle.Seek(offset, whence) }

func (s *vfsStream) Close() error {
	err := s.handle.Close()
	s.vfs.Free()
	s.ctx.Free()
	s.config.Free()
	return err
}

// memStream wraps a fully in-memory buffer; Close is a no-op.
type memStream struct {
	*bytes.Reader
}

func (memStream) Close() error { return nil }

// OpenSource opens uri for reading and returns a Stream. configURI, if
// non-empty, names a TileDB config file governing how remote URIs are
// authenticated (matching the teacher's OpenGSF config_uri parameter);
// when empty, a default (local-filesystem-capable) TileDB config is used.
// inMemory, when true, eagerly reads the whole file into a bytes.Reader and
// closes the handle immediately after the copy. Every caller in this package
// (OpenFitsFile and the voltage readers) passes false.
func OpenSource(uri string, configURI string, inMemory bool) (Stream, error) {
	config, err := loadTileDBConfig(configURI)
	if err != nil {
		return nil, fmt.Errorf("mwalib: opening %s: %w", uri, err)
	}

	ctx, err := tiledb.NewContext(config)
	if err != nil {
		config.Free()
		return nil, fmt.Errorf("mwalib: opening %s: %w", uri, err)
	}

	vfs, err := tiledb.NewVFS(ctx, config)
	if err != nil {
		ctx.Free()
		config.Free()
		return nil, fmt.Errorf("mwalib: opening %s: %w", uri, err)
	}

	handle, err := vfs.Open(uri, tiledb.TILEDB_VFS_READ)
	if err != nil {
		vfs.Free()
		ctx.Free()
		config.Free()
		return nil, fmt.Errorf("mwalib: opening %s: %w", uri, err)
	}

	stream := &vfsStream{handle: handle, vfs: vfs, ctx: ctx, config: config}

	if !inMemory {
		return stream, nil
	}
	defer stream.Close()

	size, err := vfs.FileSize(uri)
	if err != nil {
		return nil, fmt.Errorf("mwalib: stat %s: %w", uri, err)
	}

	buffer := make([]byte, size)
	if err := binary.Read(stream, binary.BigEndian, &buffer); err != nil {
		return nil, fmt.Errorf("mwalib: reading %s into memory: %w", uri, err)
	}

	return memStream{bytes.NewReader(buffer)}, nil
}

// SourceSize returns the byte size of uri without opening a long-lived
// handle; used by the voltage reader to validate file sizes per-read.
func SourceSize(uri string, configURI string) (uint64, error) {
	config, err := loadTileDBConfig(configURI)
	if err != nil {
		return 0, err
	}
	defer config.Free()

	ctx, err := tiledb.NewContext(config)
	if err != nil {
		return 0, err
	}
	defer ctx.Free()

	vfs, err := tiledb.NewVFS(ctx, config)
	if err != nil {
		return 0, err
	}
	defer vfs.Free()

	return vfs.FileSize(uri)
}

func loadTileDBConfig(configURI string) (*tiledb.Config, error) {
	if configURI == "" {
		return tiledb.NewConfig()
	}
	return tiledb.LoadConfig(configURI)
}
