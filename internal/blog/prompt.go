// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package blog

import (
	"bytes"
	"text/template"
)

// sectionPromptTmpl is the prompt sent to the model for each chunk of
// research context. Each chunk becomes one or more body sections of the
// final post.
var sectionPromptTmpl = template.Must(template.New("section").Parse(`You are writing part of a blog post about: {{.Topic}}

Based on the following research data, write the next body section(s) of the post:

{{.Context}}

Requirements:
- Break complex topics into understandable sections with Markdown headings
- Support claims with data and examples from the research
- Cite sources by linking the article URLs inline
- Maintain a professional yet accessible tone
- Write only body sections: no overall title, introduction, or conclusion

Write the section(s) now:
`))

// framingPromptTmpl asks the model for the post's title, introduction, and
// conclusion once the body sections exist.
var framingPromptTmpl = template.Must(template.New("framing").Parse(`You are finishing a blog post about: {{.Topic}}

The body of the post is:

{{.Body}}

Write the framing for this post:
1. A compelling title as a Markdown H1 heading
2. An engaging introduction (2-3 paragraphs) after the title
3. A "Key Takeaways" conclusion section to append at the end

Respond with the title and introduction, then the line "---BODY---" on its
own, then the conclusion section. Do not repeat the body.
`))

func renderSectionPrompt(topic, context string) (string, error) {
	var buf bytes.Buffer
	err := sectionPromptTmpl.Execute(&buf, struct{ Topic, Context string }{topic, context})
	return buf.String(), err
}

func renderFramingPrompt(topic, body string) (string, error) {
	var buf bytes.Buffer
	err := framingPromptTmpl.Execute(&buf, struct{ Topic, Body string }{topic, body})
	return buf.String(), err
}
