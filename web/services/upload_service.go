package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"concierge/config"
	appErrors "concierge/errors"
	"concierge/rag"
	"concierge/web/types"

	"go.uber.org/zap"
)

// ChunkingStrategy selects how extracted text is split before indexing.
type ChunkingStrategy string

const (
	ChunkingFixed    ChunkingStrategy = "fixed"
	ChunkingSentence ChunkingStrategy = "sentence"
)

// DocumentStore is the relational persistence collaborator for ingestion.
type DocumentStore interface {
	CreateDocumentWithChunks(ctx context.Context, title, filename, contentType string, chunkTexts []string) (types.Document, []types.Chunk, error)
}

// UploadService runs the ingestion pipeline: extract, chunk, persist, index.
type UploadService struct {
	cfg       *config.Config
	store     DocumentStore
	pipeline  *rag.RAG
	extractor *Extractor
	logger    *zap.Logger
}

func NewUploadService(cfg *config.Config, store DocumentStore, pipeline *rag.RAG, extractor *Extractor, logger *zap.Logger) *UploadService {
	return &UploadService{
		cfg:       cfg,
		store:     store,
		pipeline:  pipeline,
		extractor: extractor,
		logger:    logger,
	}
}

// Ingest processes one uploaded file end to end and reports how many chunks
// were indexed.
func (u *UploadService) Ingest(ctx context.Context, fileHeader *multipart.FileHeader, strategy ChunkingStrategy) (types.IngestResponse, error) {
	filename := fileHeader.Filename
	if filename == "" {
		filename = "uploaded"
	}

	text, contentType, err := u.extract(fileHeader)
	if err != nil {
		return types.IngestResponse{}, err
	}
	if strings.TrimSpace(text) == "" {
		return types.IngestResponse{}, fmt.Errorf("%w: no extractable text in %s", appErrors.ErrInvalidInput, filename)
	}

	var chunkTexts []string
	switch strategy {
	case ChunkingSentence:
		chunkTexts = rag.SentenceChunks(text, u.cfg.ChunkSize, u.cfg.ChunkOverlap, u.logger)
	case ChunkingFixed, "":
		chunkTexts = rag.FixedSizeChunks(text, u.cfg.ChunkSize, u.cfg.ChunkOverlap)
	default:
		return types.IngestResponse{}, fmt.Errorf("%w: unknown chunking strategy %q", appErrors.ErrInvalidInput, strategy)
	}

	title := strings.TrimSuffix(filename, filepath.Ext(filename))
	doc, chunks, err := u.store.CreateDocumentWithChunks(ctx, title, filename, contentType, chunkTexts)
	if err != nil {
		return types.IngestResponse{}, fmt.Errorf("persist document: %w", err)
	}

	if err := u.pipeline.IndexChunks(ctx, chunks); err != nil {
		return types.IngestResponse{}, fmt.Errorf("index document %s: %w", doc.ID, err)
	}

	u.logger.Info("Document ingested",
		zap.String("document_id", doc.ID.String()),
		zap.String("filename", filename),
		zap.Int("chunks", len(chunks)))

	return types.IngestResponse{DocumentID: doc.ID, ChunksIndexed: len(chunks)}, nil
}

func (u *UploadService) extract(fileHeader *multipart.FileHeader) (text, contentType string, err error) {
	file, err := fileHeader.Open()
	if err != nil {
		return "", "", fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	name := strings.ToLower(fileHeader.Filename)
	declared := strings.ToLower(fileHeader.Header.Get("Content-Type"))

	switch {
	case strings.HasSuffix(name, ".pdf") || strings.Contains(declared, "pdf"):
		data, readErr := io.ReadAll(file)
		if readErr != nil {
			return "", "", fmt.Errorf("read upload: %w", readErr)
		}
		text, err = u.extractor.ExtractPDF(data)
		return text, "application/pdf", err
	case strings.HasSuffix(name, ".txt") || strings.Contains(declared, "text"):
		text, err = u.extractor.ExtractText(file)
		return text, "text/plain", err
	default:
		return "", "", fmt.Errorf("%w: unsupported file type: %s", appErrors.ErrInvalidInput, fileHeader.Filename)
	}
}
