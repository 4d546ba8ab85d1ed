// Package export serializes assembled books. Export is pure formatting:
// no scoring or assembly logic runs here.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/babelseek/babelseek/pkg/assemble"
	bberrors "github.com/babelseek/babelseek/pkg/errors"
)

// Format selects an export serialization.
type Format string

const (
	// FormatText renders page bodies with address/score headers.
	FormatText Format = "text"
	// FormatJSON renders the full book including provenance.
	FormatJSON Format = "json"
	// FormatMetadata renders book fields without page bodies.
	FormatMetadata Format = "metadata"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatMetadata:
		return FormatMetadata, nil
	default:
		return "", bberrors.ExportFormatUnsupported(s)
	}
}

// Book writes the book to w in the given format.
func Book(w io.Writer, book *assemble.Book, format Format) error {
	format, err := ParseFormat(string(format))
	if err != nil {
		return err
	}
	switch format {
	case FormatText:
		return exportText(w, book)
	case FormatJSON:
		return exportJSON(w, book)
	default:
		return exportMetadata(w, book)
	}
}

func exportText(w io.Writer, book *assemble.Book) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# Book %s\n", book.ID)
	fmt.Fprintf(&b, "Method: %s\n", book.Method)
	fmt.Fprintf(&b, "Pages: %d\n", book.PageCount())
	fmt.Fprintf(&b, "Aggregate Coherence: %.2f\n", book.AggregateCoherence)
	if book.Provenance.Query != "" {
		fmt.Fprintf(&b, "Query: %s\n", book.Provenance.Query)
	}
	fmt.Fprintf(&b, "Created: %s\n", book.Provenance.CreatedAt.Format("2006-01-02T15:04:05Z07:00"))
	fmt.Fprintf(&b, "Integrity: %s\n\n", book.IntegrityHash)
	b.WriteString(strings.Repeat("=", 80))
	b.WriteString("\n\n")

	for i, p := range book.Pages {
		fmt.Fprintf(&b, "--- Page %d (Address: %s, Score: %.2f) ---\n", i+1, p.Address, p.Score)
		b.WriteString(p.Text)
		b.WriteString("\n\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func exportJSON(w io.Writer, book *assemble.Book) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(book)
}

// pageMeta is a page stripped to its metadata for body-free export.
type pageMeta struct {
	Address string  `json:"address"`
	Score   float64 `json:"score"`
	Hash    string  `json:"hash"`
	Length  int     `json:"length"`
}

// bookMeta mirrors Book without page bodies.
type bookMeta struct {
	ID                 string              `json:"id"`
	Method             assemble.Method     `json:"method"`
	AggregateCoherence float64             `json:"aggregate_coherence"`
	Provenance         assemble.Provenance `json:"provenance"`
	IntegrityHash      string              `json:"integrity_hash"`
	Pages              []pageMeta          `json:"pages"`
}

func exportMetadata(w io.Writer, book *assemble.Book) error {
	meta := bookMeta{
		ID:                 book.ID,
		Method:             book.Method,
		AggregateCoherence: book.AggregateCoherence,
		Provenance:         book.Provenance,
		IntegrityHash:      book.IntegrityHash,
		Pages:              make([]pageMeta, 0, len(book.Pages)),
	}
	for _, p := range book.Pages {
		meta.Pages = append(meta.Pages, pageMeta{
			Address: p.Address,
			Score:   p.Score,
			Hash:    p.Hash,
			Length:  len(p.Text),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}
