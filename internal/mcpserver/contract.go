package mcpserver

// NoteFormatContract describes the canonical Markdown note format that
// LLM consumers should follow when creating or updating notes.
const NoteFormatContract = `# Ansuz Note Format Contract

Every Markdown note stored in Ansuz MUST follow this structure.

## Structure

` + "```" + `markdown
---
title: Human-readable title        # REQUIRED – used in search and suggestions
status: active                      # OPTIONAL – any scalar metadata field
priority: 2                         # OPTIONAL – numbers are stored typed
due: 2025-01-15                     # OPTIONAL – ISO-8601 date or datetime
tags:                               # OPTIONAL – YAML list; stored as array
  - tag-one
  - tag-two
---

Body text in standard Markdown.

Use [[wikilinks]] to reference other notes (without .md extension).
Use [[target|alias]] for display text that differs from the target.
` + "```" + `

## Rules

1. **YAML frontmatter is mandatory.** The ` + "```" + `---` + "```" + ` fences must be the first
   thing in the file (no leading blank lines).
2. **` + "`" + `title` + "`" + ` field is required.** It is the primary display name everywhere.
   Without it, the first H1 heading (or the filename) is used.
3. **Note identifiers** are ` + "`" + `type/filename` + "`" + ` without the ` + "`" + `.md` + "`" + ` extension.
   The type is the directory the note lives in (e.g. ` + "`" + `meeting/standup` + "`" + `).
4. **Wikilinks** use double brackets: ` + "`" + `[[other-note]]` + "`" + `. The target may be a
   bare filename (` + "`" + `[[standup]]` + "`" + `) or a full identifier (` + "`" + `[[meeting/standup]]` + "`" + `).
   Bare filenames resolve across all types; prefer full identifiers when the
   filename is ambiguous.
5. **Frontmatter values** are stored typed: booleans, numbers, dates, and
   lists survive a round-trip through the index.
6. **File paths** end with ` + "`" + `.md` + "`" + ` and use forward slashes.
7. **Encoding** is UTF-8 with a trailing newline.
8. **No HTML** unless absolutely necessary; prefer Markdown equivalents.

## Example

` + "```" + `markdown
---
title: Weekly standup 2025-01-20
status: done
tags:
  - meeting-notes
  - project-x
---

# Weekly standup 2025-01-20

Attendees: Alice, Bob.

## Action items

- [[person/alice]] to review the [[design-doc]]
- Bob to update [[project/roadmap|the roadmap]]
` + "```" + `
`
