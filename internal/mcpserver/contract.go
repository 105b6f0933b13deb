package mcpserver

// NoteFormat describes how note content is interpreted when the catalogue
// entry for a note is derived. Clients should read it before writing notes.
const NoteFormat = `# jotbox note format

A note is a single UTF-8 text file under notes/. Its file name is the note's
identity: no slashes, not "." or "..".

## Metadata

The catalogue lists every note as {file, title, date}. Both fields come from
an optional YAML frontmatter block that must open the file:

` + "```" + `markdown
---
title: Trip to Lisbon      # catalogue title
date: 2024-05-02           # kept verbatim, may be omitted
---

Body text.
` + "```" + `

Without a title in the frontmatter, the first "# " heading is used. A note
with neither is listed with an empty title. A note that exists on disk but has
never been written through jotbox is listed as "unknown" until it is updated.

## Rules

1. create_note fails if the file already exists; use update_note instead.
2. update_note and delete_note fail if the file does not exist.
3. Changing only the body does not change the catalogue entry.
4. Assets are read-only here: resolve_asset maps an asset name to its URL.
`
