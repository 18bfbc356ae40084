package meta

import (
	"io"
	"strings"

	"github.com/gomarkdown/markdown"
	mkast "github.com/gomarkdown/markdown/ast"
	mkparser "github.com/gomarkdown/markdown/parser"
)

// FenceLabel is the info string that marks a fenced code block of a markdown
// document as grammar source.
const FenceLabel = "remora"

// blockScanner is a markdown renderer that writes out only the contents of
// grammar code blocks.
type blockScanner bool

func (bs blockScanner) RenderNode(w io.Writer, node mkast.Node, entering bool) mkast.WalkStatus {
	if !entering {
		return mkast.GoToNext
	}

	codeBlock, ok := node.(*mkast.CodeBlock)
	if !ok || codeBlock == nil {
		return mkast.GoToNext
	}

	if strings.ToLower(strings.TrimSpace(string(codeBlock.Info))) == FenceLabel {
		w.Write(codeBlock.Literal)
		if len(codeBlock.Literal) > 0 && codeBlock.Literal[len(codeBlock.Literal)-1] != '\n' {
			w.Write([]byte{'\n'})
		}
	}
	return mkast.GoToNext
}

func (bs blockScanner) RenderHeader(w io.Writer, ast mkast.Node) {}
func (bs blockScanner) RenderFooter(w io.Writer, ast mkast.Node) {}

// ExtractMarkdown returns the grammar source held in a literate markdown
// document: the contents of every fenced code block labeled "remora", in
// document order.
func ExtractMarkdown(mdText []byte) string {
	doc := markdown.Parse(mdText, mkparser.New())
	var scanner blockScanner
	return string(markdown.Render(doc, scanner))
}
