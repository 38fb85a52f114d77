package rag

import (
	"strings"
	"testing"
)

func TestFixedSizeChunks(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		size    int
		overlap int
		want    []string
	}{
		{
			name:    "even_split_no_overlap",
			text:    "abcdefgh",
			size:    4,
			overlap: 0,
			want:    []string{"abcd", "efgh"},
		},
		{
			name:    "overlap_repeats_tail",
			text:    "abcdefgh",
			size:    4,
			overlap: 2,
			want:    []string{"abcd", "cdef", "efgh"},
		},
		{
			name:    "short_text_single_chunk",
			text:    "abc",
			size:    10,
			overlap: 2,
			want:    []string{"abc"},
		},
		{
			name:    "oversized_overlap_clamped_to_half_window",
			text:    "abcdef",
			size:    3,
			overlap: 5,
			want:    []string{"abc", "cde", "ef"},
		},
		{
			name:    "empty_text",
			text:    "",
			size:    4,
			overlap: 0,
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FixedSizeChunks(tt.text, tt.size, tt.overlap)
			if len(got) != len(tt.want) {
				t.Fatalf("FixedSizeChunks() = %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("chunk[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFixedSizeChunksMultibyte(t *testing.T) {
	text := "héllo wörld"
	for _, chunk := range FixedSizeChunks(text, 4, 1) {
		if !strings.Contains(text, chunk) {
			t.Errorf("chunk %q is not a substring of the input, rune boundary split", chunk)
		}
	}
}

func TestSentenceChunksGroupsWholeSentences(t *testing.T) {
	text := "The first sentence is here. The second sentence follows it. The third sentence closes."
	chunks := SentenceChunks(text, 40, 0, nil)

	if len(chunks) < 2 {
		t.Fatalf("SentenceChunks() = %d chunks, want the text split across several", len(chunks))
	}
	for i, chunk := range chunks {
		if !strings.HasSuffix(strings.TrimSpace(chunk), ".") {
			t.Errorf("chunk[%d] = %q does not end on a sentence boundary", i, chunk)
		}
	}
}

func TestSentenceChunksOverlapCarriesTail(t *testing.T) {
	text := "Alpha sentence padding words here. Bravo sentence padding words here. Charlie sentence padding words here."
	chunks := SentenceChunks(text, 30, 10, nil)

	if len(chunks) < 2 {
		t.Fatalf("SentenceChunks() = %d chunks, want at least 2", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1])
		tail := string(prev[len(prev)-10:])
		if !strings.HasPrefix(chunks[i], tail) {
			t.Errorf("chunk[%d] does not start with the 10-rune tail %q of its predecessor", i, tail)
		}
	}
}

func TestSentenceChunksEmptyInput(t *testing.T) {
	if got := SentenceChunks("", 100, 10, nil); len(got) != 0 {
		t.Errorf("SentenceChunks(\"\") = %q, want no chunks", got)
	}
}
