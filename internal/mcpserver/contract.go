package mcpserver

// DocumentFormatContract describes the synced-document layout that LLM
// consumers should follow when reading or preparing vault documents.
const DocumentFormatContract = `# Gebo Synced Document Format

Every Markdown document synchronized by Gebo follows this structure.

## Structure

` + "```" + `markdown
---
id: bafy...                         # Remote object id (set by sync, do not invent)
space_id: bafy...                   # Remote space id (set by sync)
name: Human-readable title          # Object name; falls back to the file name stem
type_key: note                      # Remote object type
status: In Progress                 # Typed remote properties, flat key: value
tags:                               # Lists render as indented items
  - project-x
  - research
synced_at: 2026-08-28T10:00:00Z     # Last successful sync (set by sync)
---

Body text in standard Markdown.

Use [[wikilinks]] to reference other documents by title.
Use [[target|alias]] for display text that differs from the target.
` + "```" + `

## Rules

1. **The header block is rewritten on every sync.** Hand edits to property
   values survive (they are pushed on the next sync); hand edits to
   ` + "`" + `id` + "`" + `, ` + "`" + `space_id` + "`" + `, or ` + "`" + `synced_at` + "`" + ` do not.
2. **A document without both ` + "`" + `id` + "`" + ` and ` + "`" + `space_id` + "`" + ` is local-only.**
   Syncing it creates a new remote object and writes the identity back.
3. **Unknown header keys are kept local** when their type cannot be
   inferred; they are never deleted by a sync.
4. **Wikilinks translate on push**: ` + "`" + `[[Title]]` + "`" + ` becomes a
   ` + "`" + `remote://object?objectId=...` + "`" + ` hyperlink when the title resolves to a
   synced document in the same space, and stays untouched otherwise.
5. **Read-only properties** (` + "`" + `created_date` + "`" + `, ` + "`" + `last_modified_date` + "`" + `,
   ` + "`" + `created_by` + "`" + `, ` + "`" + `last_modified_by` + "`" + `, ` + "`" + `backlinks` + "`" + `, ` + "`" + `links` + "`" + `,
   ` + "`" + `mentions` + "`" + `) are informational; edits to them are never pushed.
6. **File paths** end with ` + "`" + `.md` + "`" + ` and use forward slashes.
`
