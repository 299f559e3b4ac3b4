// Package render projects a sealed ingest result into its output formats.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/gitdigest/gitdigest/internal/types"
)

const (
	indentPrefix = ""
	indentSpacer = "  "

	summaryHeaderMarkdown = "## Summary"
	treeHeaderMarkdown    = "## Directory structure"
	contentHeaderMarkdown = "## Files"
	codeFenceMarkdown     = "```"

	errorUnsupportedFormatFormat = "unsupported output format %q"
)

// Digest renders the result in the requested format. Rendering never mutates
// the result; identical results produce identical output.
func Digest(result *types.IngestResult, outputFormat string) (string, error) {
	switch outputFormat {
	case types.FormatRaw, "":
		return renderRaw(result), nil
	case types.FormatMarkdown:
		return renderMarkdown(result), nil
	case types.FormatJSON:
		return renderJSON(result)
	default:
		return "", fmt.Errorf(errorUnsupportedFormatFormat, outputFormat)
	}
}

// renderRaw concatenates summary, tree and content the way the digest is
// consumed by prompt pipelines.
func renderRaw(result *types.IngestResult) string {
	var buf bytes.Buffer
	buf.WriteString(result.SummaryText)
	buf.WriteString("\n")
	buf.WriteString(result.TreeText)
	buf.WriteString("\n")
	buf.WriteString(result.ContentText())
	return buf.String()
}

// renderMarkdown wraps each part in Markdown structure, with fenced file
// bodies carrying a language hint when one was detected.
func renderMarkdown(result *types.IngestResult) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", result.Repo.ShortName())
	buf.WriteString(summaryHeaderMarkdown + "\n\n")
	buf.WriteString(codeFenceMarkdown + "\n")
	buf.WriteString(result.SummaryText)
	buf.WriteString(codeFenceMarkdown + "\n\n")

	buf.WriteString(treeHeaderMarkdown + "\n\n")
	buf.WriteString(codeFenceMarkdown + "\n")
	buf.WriteString(result.TreeText)
	buf.WriteString(codeFenceMarkdown + "\n\n")

	buf.WriteString(contentHeaderMarkdown + "\n\n")
	for _, section := range result.Content {
		fmt.Fprintf(&buf, "### %s\n\n", section.RelativePath)
		buf.WriteString(codeFenceMarkdown + fenceLanguageHint(section.Language) + "\n")
		buf.WriteString(sectionBody(section))
		buf.WriteString(codeFenceMarkdown + "\n\n")
	}
	return buf.String()
}

// renderJSON marshals the entire result, including the structured tree and
// per-section content, as indented JSON.
func renderJSON(result *types.IngestResult) (string, error) {
	encoded, encodeError := json.MarshalIndent(result, indentPrefix, indentSpacer)
	if encodeError != nil {
		return "", encodeError
	}
	return string(encoded), nil
}

// sectionBody normalizes a file body so the fenced block terminates with
// exactly one newline.
func sectionBody(section types.ContentSection) string {
	body := section.Text
	for len(body) > 0 && body[len(body)-1] == '\n' {
		body = body[:len(body)-1]
	}
	return body + "\n"
}

func fenceLanguageHint(language string) string {
	if language == "" {
		return ""
	}
	return markdownFenceAlias(language)
}

// markdownFenceAlias lowercases the detected language into the identifiers
// Markdown highlighters commonly accept.
func markdownFenceAlias(language string) string {
	alias := make([]byte, 0, len(language))
	for characterIndex := 0; characterIndex < len(language); characterIndex++ {
		character := language[characterIndex]
		switch {
		case character >= 'A' && character <= 'Z':
			alias = append(alias, character+'a'-'A')
		case character == ' ':
			alias = append(alias, '-')
		default:
			alias = append(alias, character)
		}
	}
	return string(alias)
}
