package feed

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"time"

	"feedgate/app/database"
)

// ChannelMeta describes the channel of the generated document.
type ChannelMeta struct {
	Title       string
	Link        string
	Description string
	SelfLink    string
	Generator   string
	LastBuildAt *time.Time
}

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Run(meta ChannelMeta, items []database.FeedItem) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", meta.Title, 4)
	g.writeElement(&buf, "link", meta.Link, 4)
	g.writeElement(&buf, "description", cmp.Or(meta.Description, "Merged feed items"), 4)

	if meta.SelfLink != "" {
		buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
			html.EscapeString(meta.SelfLink)))
	}

	lastBuildDate := time.Now().UTC()
	if meta.LastBuildAt != nil {
		lastBuildDate = meta.LastBuildAt.UTC()
	}
	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)

	if meta.Generator != "" {
		g.writeElement(&buf, "generator", meta.Generator, 4)
	}

	for _, item := range items {
		g.writeItem(&buf, item)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, item database.FeedItem) {
	buf.WriteString("    <item>\n")

	guid := cmp.Or(item.ContentHash, item.Link)
	if guid != "" {
		buf.WriteString(`      <guid isPermaLink="false">`)
		xml.EscapeText(buf, []byte(guid))
		buf.WriteString("</guid>\n")
	}

	g.writeElement(buf, "title", cmp.Or(item.Title, item.Link, "(untitled)"), 6)

	if item.Link != "" {
		g.writeElement(buf, "link", item.Link, 6)
	}

	if item.Summary != "" {
		g.writeElement(buf, "description", item.Summary, 6)
	}

	g.writeElement(buf, "pubDate", item.PublishedAt.UTC().Format(time.RFC1123Z), 6)

	if item.Category != "" {
		g.writeElement(buf, "category", item.Category, 6)
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}
