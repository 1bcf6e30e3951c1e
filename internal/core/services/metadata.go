package services

import (
	"strings"

	"github.com/custodia-labs/didakt/internal/core/domain"
)

// Repository node property names read during extraction.
const (
	propTitle                = "cclom:title"
	propKeyword              = "cclom:general_keyword"
	propDescription          = "cclom:general_description"
	propSubjectDisplay       = "ccm:taxonid_DISPLAYNAME"
	propEducationalContext   = "ccm:educationalcontext_DISPLAYNAME"
	propWWWURL               = "ccm:wwwurl"
	propAggregatedType       = "ccm:oeh_lrt_aggregated"
	propAggregatedTypeName   = "ccm:oeh_lrt_aggregated_DISPLAYNAME"
	propResourceTypeFallback = "ccm:educationallearningresourcetype_DISPLAYNAME"
)

// ExtractMetadata maps a raw node's property bag to a normalised record.
// It is pure: missing properties yield empty strings, empty slices and nil URLs.
func ExtractMetadata(node domain.SearchNode) domain.Metadata {
	md := domain.Metadata{
		Title:              firstOf(node.First(propTitle), node.Title, node.Name),
		Keywords:           node.All(propKeyword),
		Description:        node.First(propDescription),
		Subject:            node.First(propSubjectDisplay),
		EducationalContext: node.All(propEducationalContext),
		ResourceType:       resolveResourceType(node),
		NodeID:             node.Ref.ID,
	}

	if u := node.First(propWWWURL); u != "" {
		md.WWWURL = &u
	}

	switch {
	case node.Preview != nil && node.Preview.URL != "":
		preview := node.Preview.URL
		md.PreviewURL = &preview
	case node.Ref.ID != "":
		preview := domain.PreviewURLFor(node.Ref.ID)
		md.PreviewURL = &preview
	}

	return md
}

// resolveResourceType walks the fallback chain; the order is significant.
func resolveResourceType(node domain.SearchNode) string {
	if name := node.First(propAggregatedTypeName); name != "" {
		return name
	}
	if name := node.First(propResourceTypeFallback); name != "" {
		return name
	}
	if uri := strings.TrimRight(node.First(propAggregatedType), "/"); uri != "" {
		if i := strings.LastIndex(uri, "/"); i >= 0 && i < len(uri)-1 {
			return uri[i+1:]
		}
		return uri
	}
	return domain.DefaultResourceType
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
