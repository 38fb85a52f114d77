package rag

import (
	"strings"

	"github.com/jdkato/prose/v2"
	"go.uber.org/zap"
)

// FixedSizeChunks splits text into character windows of the given size with
// the given overlap between consecutive windows.
func FixedSizeChunks(text string, size, overlap int) []string {
	if size <= 0 {
		return []string{text}
	}
	if overlap < 0 {
		overlap = 0
	}
	// An overlap at or above the window size would stall the scan; clamp
	// it to half a window.
	if overlap >= size {
		overlap = size / 2
	}

	runes := []rune(text)
	n := len(runes)
	var chunks []string
	for i := 0; i < n; {
		end := i + size
		if end > n {
			end = n
		}
		chunks = append(chunks, string(runes[i:end]))
		if end >= n {
			break
		}
		i = end - overlap
	}
	return chunks
}

// SentenceChunks groups whole sentences up to a target size, repeating the
// tail of each chunk as overlap so context survives the boundary. Falls back
// to fixed-size windows when sentence segmentation fails or finds nothing.
func SentenceChunks(text string, targetSize, overlap int, logger *zap.Logger) []string {
	doc, err := prose.NewDocument(text, prose.WithTagging(false), prose.WithExtraction(false))
	if err != nil {
		if logger != nil {
			logger.Warn("Sentence segmentation failed, falling back to fixed-size chunking", zap.Error(err))
		}
		return FixedSizeChunks(text, targetSize, overlap)
	}

	sentences := doc.Sentences()
	if len(sentences) == 0 {
		return FixedSizeChunks(text, targetSize, overlap)
	}

	var chunks []string
	var current []string
	currentLen := 0

	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
		}
	}

	for _, sent := range sentences {
		s := strings.TrimSpace(sent.Text)
		if s == "" {
			continue
		}

		if currentLen > 0 && currentLen >= targetSize {
			flush()
			if overlap > 0 {
				prev := []rune(chunks[len(chunks)-1])
				tailStart := len(prev) - overlap
				if tailStart < 0 {
					tailStart = 0
				}
				tail := string(prev[tailStart:])
				current = []string{tail, s}
				currentLen = len(tail) + len(s)
			} else {
				current = []string{s}
				currentLen = len(s)
			}
			continue
		}

		current = append(current, s)
		currentLen += len(s)
	}
	flush()
	return chunks
}
