// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"fmt"
	"time"
)

// Blog statuses
const (
	BlogStatusDraft     = "Draft"
	BlogStatusPublished = "Published"
	BlogStatusArchived  = "Archived"
)

// BlogCategoryAll is the sentinel value that disables category filtering.
const BlogCategoryAll = "all"

// MaxTitleLength is the maximum blog title length.
const MaxTitleLength = 200

// MaxFeatured is the maximum number of posts returned by the featured query.
const MaxFeatured = 3

// Content block types
const (
	BlockParagraph  = "paragraph"
	BlockImage      = "image"
	BlockList       = "list"
	BlockQuote      = "quote"
	BlockLink       = "link"
	BlockSection    = "section"
	BlockSubsection = "subsection"
)

// List styles
const (
	ListStyleOrdered   = "ordered"
	ListStyleUnordered = "unordered"
)

// MaxContentDepth bounds recursion when validating nested section and
// subsection blocks, so hostile input cannot blow the stack.
const MaxContentDepth = 8

// ValidBlogStatuses returns all valid blog statuses.
func ValidBlogStatuses() []string {
	return []string{BlogStatusDraft, BlogStatusPublished, BlogStatusArchived}
}

// IsValidBlogStatus checks if a status is one of the enumerated values.
func IsValidBlogStatus(status string) bool {
	for _, s := range ValidBlogStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// ContentBlock is one node of a blog post's content tree. Type selects the
// variant; section and subsection nodes carry ordered Children, enabling
// arbitrarily nested document structure.
type ContentBlock struct {
	Type     string         `json:"type"`
	Text     string         `json:"text,omitempty"`     // paragraph, quote (Markdown)
	URL      string         `json:"url,omitempty"`      // image, link
	Alt      string         `json:"alt,omitempty"`      // image
	Label    string         `json:"label,omitempty"`    // link
	Style    string         `json:"style,omitempty"`    // list: ordered | unordered
	Items    []string       `json:"items,omitempty"`    // list
	Title    string         `json:"title,omitempty"`    // section, subsection
	Children []ContentBlock `json:"children,omitempty"` // section, subsection

	// HTML is the rendered, sanitized form of Text. Populated on public
	// reads only; never persisted.
	HTML string `json:"html,omitempty"`
}

// FAQ is a question/answer pair attached to a blog post.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// HeroImage is the lead image of a blog post.
type HeroImage struct {
	URL string `json:"url"`
	Alt string `json:"alt"`
}

// SEOMeta holds search-engine metadata for a blog post.
type SEOMeta struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}

// Blog is the full blog post document as exchanged over the API. Nested
// structures (content tree, FAQs, tags, SEO) are embedded in the document;
// there are no separate collections for them.
type Blog struct {
	ID           int64          `json:"id"`
	Title        string         `json:"title"`
	Slug         string         `json:"slug"`
	Author       string         `json:"author"`
	Category     string         `json:"category"`
	Status       string         `json:"status"`
	Featured     bool           `json:"featured"`
	ReadTime     int            `json:"readTime"`
	HeroImage    HeroImage      `json:"heroImage"`
	Content      []ContentBlock `json:"content"`
	FAQs         []FAQ          `json:"faqs"`
	Tags         []string       `json:"tags"`
	RelatedPosts []int64        `json:"relatedPosts"`
	SEO          SEOMeta        `json:"seo"`
	PublishedAt  *time.Time     `json:"publishedAt,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// IsPublished returns true if the post is publicly visible.
func (b *Blog) IsPublished() bool {
	return b.Status == BlogStatusPublished
}

// ValidateContentBlocks walks a content tree and checks that every node
// carries a known type tag, list nodes use a known style, and the tree does
// not exceed MaxContentDepth levels of nesting.
func ValidateContentBlocks(blocks []ContentBlock) error {
	return validateBlocks(blocks, 1)
}

func validateBlocks(blocks []ContentBlock, depth int) error {
	if depth > MaxContentDepth {
		return fmt.Errorf("content nesting exceeds maximum depth of %d", MaxContentDepth)
	}

	for i, b := range blocks {
		switch b.Type {
		case BlockParagraph, BlockImage, BlockQuote, BlockLink:
			// leaf variants, nothing structural to check
		case BlockList:
			if b.Style != ListStyleOrdered && b.Style != ListStyleUnordered {
				return fmt.Errorf("block %d: list style must be %q or %q", i, ListStyleOrdered, ListStyleUnordered)
			}
		case BlockSection, BlockSubsection:
			if err := validateBlocks(b.Children, depth+1); err != nil {
				return err
			}
		default:
			return fmt.Errorf("block %d: unknown content block type %q", i, b.Type)
		}
	}

	return nil
}
