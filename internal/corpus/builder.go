// Package corpus turns loaded specification documents into the searchable
// corpus and publishes it to readers.
package corpus

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goel7054/swagger-bot/internal/models"
	"github.com/goel7054/swagger-bot/internal/specdoc"
)

// httpMethods are the path item keys that declare operations.
var httpMethods = map[string]bool{
	"get":     true,
	"put":     true,
	"post":    true,
	"delete":  true,
	"options": true,
	"head":    true,
	"patch":   true,
	"trace":   true,
}

// Build aggregates docs, in order, into a corpus. Documents without paths add
// no entries; documents without info or servers add no metadata record.
func Build(docs []*specdoc.Document) *models.Corpus {
	c := &models.Corpus{}
	for _, doc := range docs {
		if doc == nil || doc.Root == nil {
			continue
		}
		if md, ok := buildMetadata(doc); ok {
			c.Metadata = append(c.Metadata, md)
		}
		c.Entries = append(c.Entries, buildEntries(doc)...)
	}
	return c
}

func buildMetadata(doc *specdoc.Document) (models.DocumentMetadata, bool) {
	info := specdoc.Lookup(doc.Root, "info")
	servers := serverURLs(doc.Root)
	if info == nil && len(servers) == 0 && specdoc.Lookup(doc.Root, "servers") == nil {
		return models.DocumentMetadata{}, false
	}
	return models.DocumentMetadata{
		SourceID:    doc.SourceID,
		Title:       specdoc.LookupString(info, "title"),
		Version:     specdoc.LookupString(info, "version"),
		Description: specdoc.LookupString(info, "description"),
		Servers:     servers,
	}, true
}

// serverURLs reads OpenAPI 3 servers, falling back to the Swagger 2
// host/basePath/schemes triple when no servers are declared.
func serverURLs(root *yaml.Node) []string {
	var urls []string
	for _, s := range specdoc.Items(specdoc.Lookup(root, "servers")) {
		if u := strings.TrimSpace(specdoc.LookupString(s, "url")); u != "" {
			urls = append(urls, u)
		}
	}
	if len(urls) > 0 {
		return urls
	}

	host := strings.TrimSpace(specdoc.LookupString(root, "host"))
	if host == "" {
		return nil
	}
	scheme := "https"
	if schemes := specdoc.Items(specdoc.Lookup(root, "schemes")); len(schemes) > 0 {
		if s := specdoc.Scalar(schemes[0]); s != "" {
			scheme = s
		}
	}
	basePath := strings.TrimSpace(specdoc.LookupString(root, "basePath"))
	if basePath == "/" {
		basePath = ""
	}
	return []string{scheme + "://" + host + basePath}
}

func buildEntries(doc *specdoc.Document) []models.OperationEntry {
	var entries []models.OperationEntry
	for _, p := range specdoc.Pairs(specdoc.Lookup(doc.Root, "paths")) {
		pathItem := p.Value
		shared := specdoc.Items(specdoc.Lookup(pathItem, "parameters"))
		for _, m := range specdoc.Pairs(pathItem) {
			if !httpMethods[strings.ToLower(m.Key)] {
				continue
			}
			op := m.Value
			entries = append(entries, models.OperationEntry{
				Method:      strings.ToUpper(m.Key),
				Path:        p.Key,
				Summary:     specdoc.LookupString(op, "summary"),
				Description: specdoc.LookupString(op, "description"),
				OperationID: specdoc.LookupString(op, "operationId"),
				Tags:        flattenTags(specdoc.Lookup(op, "tags")),
				Parameters:  flattenParameters(shared, specdoc.Items(specdoc.Lookup(op, "parameters"))),
				SourceID:    doc.SourceID,
			})
		}
	}
	return entries
}

func flattenTags(n *yaml.Node) string {
	var tags []string
	for _, t := range specdoc.Items(n) {
		if s := strings.TrimSpace(specdoc.Scalar(t)); s != "" {
			tags = append(tags, s)
		}
	}
	return strings.Join(tags, " ")
}

// flattenParameters renders "name description" per parameter. Path-level
// parameters come first unless the operation redeclares the same name and
// location.
func flattenParameters(shared, own []*yaml.Node) string {
	overridden := make(map[string]bool, len(own))
	for _, p := range own {
		overridden[paramKey(p)] = true
	}
	var parts []string
	add := func(p *yaml.Node) {
		text := strings.TrimSpace(specdoc.LookupString(p, "name") + " " + specdoc.LookupString(p, "description"))
		if text != "" {
			parts = append(parts, text)
		}
	}
	for _, p := range shared {
		if k := paramKey(p); k != "" && overridden[k] {
			continue
		}
		add(p)
	}
	for _, p := range own {
		add(p)
	}
	return strings.Join(parts, " ")
}

func paramKey(p *yaml.Node) string {
	name := specdoc.LookupString(p, "name")
	if name == "" {
		return ""
	}
	return specdoc.LookupString(p, "in") + ":" + name
}
