package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `voicenotes files transcribed voice notes into projects.

Core concepts:
- Note: a transcribed recording. It has a transcript, an optional project, and a processed flag.
- Inbox: completed notes with no project. Assigning a note removes it from the inbox.
- Project: a named bucket with a purpose, a goal, and a note count kept by the store.
- Archived projects stay readable but are not offered as triage targets.

Default triage loop:
1) get_inbox_stats to see how much is waiting.
2) list_projects to learn the available targets.
3) list_unprocessed_notes, then read_note for anything whose preview is unclear.
4) assign_note_to_project for each note, or create_project first when nothing fits.
5) mark_as_processed for notes that need no project; delete_note for noise.

Every listing reflects your own writes immediately. There is no need to wait or poll
after assigning, renaming, or deleting.

Docs:
- voicenotes://docs/triage (the loop above in more detail, plus error codes)
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "voicenotes://docs/triage",
		Name:        "docs_triage",
		Title:       "Triage workflow",
		Description: "How to empty the inbox, how views stay consistent, and what each error code means.",
		Content: `# Triage workflow

## Views

- ` + "`list_unprocessed_notes`" + ` is the inbox: completed notes with no project, newest first. Processed notes without a project are included.
- ` + "`get_notes_by_project`" + ` lists a project's completed notes, newest first.
- ` + "`list_projects`" + ` hides archived projects unless ` + "`include_archived`" + ` is set.
- ` + "`get_inbox_stats`" + ` counts all notes, unprocessed notes, notes from the last 7 days, and the inbox.

Listings page with ` + "`limit`" + ` and ` + "`offset`" + `. ` + "`has_more`" + ` is true when the page came back full.

## Writes

- ` + "`assign_note_to_project`" + ` sets the project and marks the note processed. It also moves a
  note between projects. Archived targets are refused unless ` + "`allow_archived`" + ` is true.
- ` + "`unassign_note`" + ` returns a note to the inbox and clears its processed flag.
- ` + "`mark_as_processed`" + ` and ` + "`bulk_mark_processed`" + ` only change the processed flag.
- ` + "`update_project`" + ` renames, re-describes, archives, or unarchives. Renames show up in note
  details immediately.

A write that fails changes nothing. Retry it or report the error.

## Error codes

| Code | Meaning |
| --- | --- |
| VALIDATION_ERROR | Arguments missing or malformed |
| NOTE_NOT_FOUND | No note with that ID |
| PROJECT_NOT_FOUND | No project with that ID |
| INVALID_STATE | The target project is archived |
| TRANSPORT_ERROR | The note store could not be reached; a write may or may not have been applied, so re-read first |
| REMOTE_REJECTED | The note store refused the request |
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
