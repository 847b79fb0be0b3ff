// Package markdown holds the text stages of the compile pipeline: splitting
// frontmatter from the stored body, rendering the body to HTML with goldmark,
// and rewriting anchors into navigation components.
package markdown
