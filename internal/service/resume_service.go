package service

import (
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
)

type ResumeServiceInterface interface {
	ExtractText(path string) (string, error)
}

// ResumeService pulls plain text out of an uploaded resume PDF.
type ResumeService struct{}

func NewResumeService() *ResumeService {
	return &ResumeService{}
}

func (s *ResumeService) ExtractText(path string) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var pages []string
	for n := 0; n < doc.NumPage(); n++ {
		text, err := doc.Text(n)
		if err != nil {
			return "", fmt.Errorf("page %d: failed to extract text: %w", n+1, err)
		}
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			pages = append(pages, trimmed)
		}
	}

	result := strings.TrimSpace(strings.Join(pages, "\n\n"))
	if result == "" {
		return "", fmt.Errorf("no text extracted from PDF")
	}
	return result, nil
}
