package importer

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"photofind/internal/registry"
)

// xmlNamespace is the predefined namespace for xml:lang and friends; it is
// never declared in the document.
const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

// extractKeyValues flattens one XMP sidecar into path-keyed values. Element
// text is keyed by the slash-joined tag stack ("x:xmpmeta/rdf:RDF/...");
// attributes get the stack plus ":attrName". Two aggregates are built along
// the way: rdf:li items under digiKam:TagsList/rdf:Seq and under
// dc:title/rdf:Alt are each joined with ";" into a single value.
func extractKeyValues(data []byte) (map[string]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	// The decoder resolves prefixes to namespace URIs; sidecar keys use the
	// prefixes, so remember each declaration to map back.
	prefixes := map[string]string{xmlNamespace: "xml"}
	qualify := func(n xml.Name) string {
		if n.Space == "" {
			return n.Local
		}
		if p, ok := prefixes[n.Space]; ok {
			return p + ":" + n.Local
		}
		return n.Local
	}

	kv := make(map[string]string)
	var tagStack []string
	var inTagsList, inSeq, inTitle, inAlt bool
	var tagsListItems, titleItems []string

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing sidecar XML: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			// Namespace declarations first so the element's own name and
			// attributes can use them.
			for _, attr := range t.Attr {
				if attr.Name.Space == "xmlns" {
					prefixes[attr.Value] = attr.Name.Local
				}
			}

			tag := qualify(t.Name)
			tagStack = append(tagStack, tag)

			if strings.HasSuffix(tag, "digiKam:TagsList") {
				inTagsList = true
			}
			if inTagsList && strings.HasSuffix(tag, "rdf:Seq") {
				inSeq = true
			}
			if strings.HasSuffix(tag, "dc:title") {
				inTitle = true
			}
			if inTitle && strings.HasSuffix(tag, "rdf:Alt") {
				inAlt = true
			}

			for _, attr := range t.Attr {
				if attr.Name.Space == "xmlns" || attr.Name.Local == "xmlns" {
					continue
				}
				key := strings.Join(tagStack, "/") + ":" + qualify(attr.Name)
				kv[key] = attr.Value
			}

		case xml.CharData:
			text := strings.TrimSpace(string(t))
			if len(tagStack) == 0 || text == "" {
				continue
			}
			last := tagStack[len(tagStack)-1]
			switch {
			case inTagsList && inSeq && strings.HasSuffix(last, "rdf:li"):
				tagsListItems = append(tagsListItems, text)
			case inTitle && inAlt && strings.HasSuffix(last, "rdf:li"):
				titleItems = append(titleItems, text)
			default:
				kv[strings.Join(tagStack, "/")] = text
			}

		case xml.EndElement:
			tag := qualify(t.Name)
			if inSeq && strings.HasSuffix(tag, "rdf:Seq") {
				inSeq = false
			}
			if inTagsList && strings.HasSuffix(tag, "digiKam:TagsList") {
				inTagsList = false
				if len(tagsListItems) > 0 {
					kv["digiKam:TagsList/rdf:Seq"] = strings.Join(tagsListItems, ";")
					tagsListItems = nil
				}
			}
			if inAlt && strings.HasSuffix(tag, "rdf:Alt") {
				inAlt = false
			}
			if inTitle && strings.HasSuffix(tag, "dc:title") {
				inTitle = false
				if len(titleItems) > 0 {
					kv["dc:title/rdf:Alt"] = strings.Join(titleItems, ";")
					titleItems = nil
				}
			}
			if len(tagStack) > 0 {
				tagStack = tagStack[:len(tagStack)-1]
			}
		}
	}

	return kv, nil
}

// sidecarRows selects the registry rows for one sidecar's flattened values.
// xmp:ModifyDate always comes first, empty when the sidecar has none, so
// every file carries a modification timestamp row. Beyond that only tag
// lists and titles are indexed; the rest of the XMP soup stays out of the
// database.
func sidecarRows(kv map[string]string) []registry.KeyValue {
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	modifyDate := ""
	for _, k := range keys {
		if strings.HasSuffix(k, "xmp:ModifyDate") {
			modifyDate = kv[k]
			break
		}
	}

	rows := []registry.KeyValue{{Key: "xmp:ModifyDate", Value: modifyDate}}
	for _, k := range keys {
		if strings.Contains(k, "digiKam:TagsList") || k == "dc:title/rdf:Alt" {
			rows = append(rows, registry.KeyValue{Key: k, Value: kv[k]})
		}
	}
	return rows
}
