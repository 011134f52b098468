package ports

import (
	"context"

	"gokw/domain/dataset"
	"gokw/domain/metadata"
)

// MatrixReaderPort loads a feature × sample matrix
type MatrixReaderPort interface {
	ReadMatrix(ctx context.Context) (*dataset.FeatureMatrix, error)
}

// MetadataReaderPort loads a sample metadata table
type MetadataReaderPort interface {
	ReadMetadata(ctx context.Context) (*metadata.Table, error)
}
