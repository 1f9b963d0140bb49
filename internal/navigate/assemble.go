package navigate

import (
	"fmt"
	"strings"

	"github.com/mih97/qcnav-linebot-go/internal/docref"
	"github.com/mih97/qcnav-linebot-go/internal/linktable"
)

// Assembler renders bot replies from ranked recommendations. All templates
// exist in Korean and English; the language is decided from the user's query
// before assembly and passed in.
type Assembler struct {
	table     *linktable.Table
	folderURL string
}

// NewAssembler creates an assembler using the given link registry and the
// document folder fallback URL shown in footers.
func NewAssembler(table *linktable.Table, folderURL string) *Assembler {
	return &Assembler{table: table, folderURL: folderURL}
}

// Reply is an assembled bot answer.
type Reply struct {
	Text      string
	Language  string
	HasMore   bool // Whether a "show more" affordance should be offered
	PageIndex int
	LinkCount int
}

// RenderPage renders one page of recommendations with global ranks, resolved
// hyperlinks, and either a "show more" hint or the folder footer.
func (a *Assembler) RenderPage(session *Session, pageIndex int) *Reply {
	p := session.Pagination
	items := p.Page(pageIndex)
	lang := session.Language

	var b strings.Builder
	linkCount := 0

	if pageIndex == 0 && session.Basis != "" {
		b.WriteString(session.Basis)
		b.WriteString("\n\n")
	}

	if lang == docref.LangKorean {
		b.WriteString("확인할 문서\n")
	} else {
		b.WriteString("Documents to check\n")
	}

	for i, rec := range items {
		rank := p.GlobalRank(pageIndex, i)
		if lang == docref.LangKorean {
			fmt.Fprintf(&b, "%d순위: %s / %s / %s\n", rank, rec.Ref.DocID(), rec.Title, rec.Equipment)
		} else {
			fmt.Fprintf(&b, "Rank %d: %s / %s / %s\n", rank, rec.Ref.DocID(), rec.Title, rec.Equipment)
		}

		links := docref.ResolveLinks([]docref.Ref{rec.Ref}, a.table, lang)
		for _, link := range links {
			fmt.Fprintf(&b, "%s: %s\n", link.Label, link.URL)
			linkCount++
		}
	}

	hasMore := p.HasMore(pageIndex)
	b.WriteString("\n")
	if hasMore {
		if lang == docref.LangKorean {
			fmt.Fprintf(&b, "추가 문서가 %d건 더 있습니다.", p.Len()-(pageIndex+1)*p.PageSize())
		} else {
			fmt.Fprintf(&b, "%d more document(s) available.", p.Len()-(pageIndex+1)*p.PageSize())
		}
	} else {
		b.WriteString(a.footer(lang))
	}

	return &Reply{
		Text:      b.String(),
		Language:  lang,
		HasMore:   hasMore,
		PageIndex: pageIndex,
		LinkCount: linkCount,
	}
}

// RenderApology renders the fixed two-line no-match reply. It is only used
// after every retrieval pass came back empty.
func (a *Assembler) RenderApology(lang string) *Reply {
	var text string
	if lang == docref.LangKorean {
		text = "문서 근거 부족으로 안내 불가\n질문 1~2개만 요청: 장비 종류 또는 증상 키워드 또는 에러코드"
	} else {
		text = "Unable to guide you due to insufficient document evidence.\nPlease provide one or two details: equipment type, symptom keyword, or error code."
	}
	return &Reply{Text: text, Language: lang}
}

// RenderError renders a user-facing failure message for collaborator
// outages. The message never leaks internal error detail.
func (a *Assembler) RenderError(lang string) *Reply {
	var text string
	if lang == docref.LangKorean {
		text = "일시적인 오류가 발생했습니다. 잠시 후 다시 시도해 주세요."
	} else {
		text = "A temporary error occurred. Please try again shortly."
	}
	return &Reply{Text: text, Language: lang}
}

// footer is the static document-folder guidance appended to final pages.
func (a *Assembler) footer(lang string) string {
	if lang == docref.LangKorean {
		return fmt.Sprintf("열람 방법: 보안 링크(%s)에 접속한 후 해당 장비 폴더(HPLC/UPLC/GC/ICP)에서 해당 번호의 PDF를 열람하시면 됩니다.", a.folderURL)
	}
	return fmt.Sprintf("How to view: open the secure link (%s) and find the numbered PDF in the matching equipment folder (HPLC/UPLC/GC/ICP).", a.folderURL)
}

// Basis renders the one-line classification rationale.
func Basis(lang, keyword, categoryName string) string {
	if categoryName == "" {
		return ""
	}
	if lang == docref.LangKorean {
		return fmt.Sprintf("질문 키워드 '%s'에 따라 %s(으)로 분류되었습니다.", keyword, categoryName)
	}
	return fmt.Sprintf("Classified as %s based on the keyword '%s'.", categoryName, keyword)
}
