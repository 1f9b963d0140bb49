package docref

import (
	"fmt"

	"github.com/mih97/qcnav-linebot-go/internal/linktable"
	"github.com/mih97/qcnav-linebot-go/internal/sliceutil"
)

// Link is a resolved, labeled hyperlink for one document reference.
type Link struct {
	Ref   Ref
	URL   string
	Label string
}

// ResolveLinks cross-references document refs against the link registry for
// the given language. Refs without a registered link are dropped. Results are
// de-duplicated by URL, first occurrence wins, input order preserved.
func ResolveLinks(refs []Ref, table *linktable.Table, language string) []Link {
	var links []Link
	for _, ref := range refs {
		url, ok := table.Lookup(ref.Equipment, ref.Number, language)
		if !ok {
			continue
		}
		links = append(links, Link{
			Ref:   ref,
			URL:   url,
			Label: linkLabel(ref, language),
		})
	}

	return sliceutil.Deduplicate(links, func(l Link) string { return l.URL })
}

// linkLabel renders the per-language link label. The equipment-number pair
// in the label always matches the resolved reference.
func linkLabel(ref Ref, language string) string {
	if language == LangKorean {
		return fmt.Sprintf("%s 문서 바로가기", ref.DocID())
	}
	return fmt.Sprintf("Open %s", ref.DocID())
}
