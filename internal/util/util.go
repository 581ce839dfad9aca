// Package util provides content hashing, tag and word helpers, and front matter parsing.
package util

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gomarkdown/markdown"

	"github.com/mmarkdown/mmark/v2/mast"
)

type ExtendedTitleData struct {
	*mast.TitleData
	Consumed int
}

func ContentHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

func ContentHashString(content string) string {
	return ContentHash([]byte(content))
}

// SplitTags turns the raw comma separated tags field into a tag list.
// Order of first appearance is kept, blanks and exact duplicates are dropped.
func SplitTags(raw string) []string {
	tags := make([]string, 0)
	seen := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		tag := strings.TrimSpace(part)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

// NormalizeTags applies the SplitTags rules to an already split list.
func NormalizeTags(tags []string) []string {
	return SplitTags(strings.Join(tags, ","))
}

// JoinTags is the inverse of SplitTags, used to fill the editor's tags field.
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

func WordCount(content string) int {
	return len(strings.Fields(content))
}

func GetFrontMatter(md []byte) (*ExtendedTitleData, error) {
	md = markdown.NormalizeNewlines(md)
	md = bytes.TrimLeft(md, "\n \t\r")

	delimiter := []byte("%%%")

	// Check if md is long enough to contain the delimiter
	if len(md) < 2*len(delimiter) {
		return nil, fmt.Errorf("invalid front matter format")
	}

	first := bytes.Index(md[:len(delimiter)+1], delimiter)
	if first == -1 {
		return nil, fmt.Errorf("invalid front matter format")
	}

	second := bytes.Index(md[first+len(delimiter):], delimiter)
	if second == -1 {
		return nil, fmt.Errorf("invalid front matter format")
	}

	end := second + 2*len(delimiter) + 1
	if end > len(md) {
		return nil, fmt.Errorf("invalid front matter format")
	}

	frontMatter := md[len(delimiter) : end-len(delimiter)-1]
	info := &ExtendedTitleData{
		TitleData: &mast.TitleData{},
	}

	if _, err := toml.Decode(string(frontMatter), info.TitleData); err != nil {
		return nil, fmt.Errorf("failed to decode front matter: %w", err)
	}

	if info.Language == "" {
		info.Language = "en"
	}
	info.Consumed = end

	return info, nil
}

// Document is a markdown file split into the fields a post needs.
type Document struct {
	Title string
	Tags  []string
	Body  string
}

// ParseDocument reads mmark front matter (title, keyword) when present.
// Without front matter the whole input is the body and the title is empty.
func ParseDocument(md []byte) Document {
	normalized := bytes.TrimLeft(markdown.NormalizeNewlines(md), "\n \t\r")

	info, err := GetFrontMatter(normalized)
	if err != nil {
		return Document{Body: strings.TrimSpace(string(normalized)), Tags: []string{}}
	}

	return Document{
		Title: strings.TrimSpace(info.Title),
		Tags:  NormalizeTags(info.Keyword),
		Body:  strings.TrimSpace(string(normalized[info.Consumed:])),
	}
}
