package mcpserver

// CollectionFormat describes how notes are persisted by every backend.
// It is served to LLM consumers as a resource so they can reason about
// what the tools return.
const CollectionFormat = `# Notebox Storage Format

Both backends store the whole collection as a single JSON array.
The SharedPreferences backend keeps it under the key ` + "`notes_list`" + `;
the JSON File backend keeps it in ` + "`notes.json`" + ` inside the data directory.

## Element

` + "```" + `json
{
  "id": "5f0c1c1e-7c1a-4c0e-9b7e-2f1d2d8a9e01",
  "title": "Groceries",
  "content": "milk, eggs",
  "timestamp": 1700000000000
}
` + "```" + `

## Rules

1. Notes are kept in insertion order; new notes are appended.
2. ` + "`timestamp`" + ` is milliseconds since the Unix epoch.
3. IDs are unique when created here but are not enforced unique on read.
   Deleting an id removes every note that carries it.
4. Notes are immutable. An update removes the note and appends a new one
   with the same id and a fresh timestamp.
5. An empty collection is stored as ` + "`[]`" + `.
6. Switching backends copies every note, timestamps included, into the
   other backend after clearing it. The old backend is left untouched.
`
