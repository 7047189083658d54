package storage

import "errors"

var (
	ErrQdrantUnreachable   = errors.New("qdrant server unreachable")
	ErrDimensionMismatch   = errors.New("embedding dimension mismatch")
	ErrDuplicateCommit     = errors.New("commit already stored")
	ErrUnsupportedBackend  = errors.New("unsupported store backend")
	ErrUnsupportedDatabase = errors.New("unsupported database url")
)
