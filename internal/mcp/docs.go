package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `pdmvault manages engineering CAD documents (parts, assemblies, machines, groups) in a shared file archive.

Core concepts:
- Code: MMM_GGGG-0001 (part/assembly), MMM_GGGG-VVV-0001 (with variant), MMM-V0001 (machine), MMM_GGGG-V0001 (group).
- State: WIP -> REL -> IN_REV -> REL (approve bumps the revision, cancel does not). Any of WIP, REL, IN_REV can go to OBS and back.
- Archive: <root>/<mmm>/<gggg>/{wip,rel,inrev,rev}; machines under MACHINES/, groups under GROUPS/.
- Locks: one session edits a document at a time. Workflow tools take the lock for you.

Rules of engagement:
1) Find documents with search_documents or get_document.
2) New documents: create_document allocates the code. Use peek_sequence to preview a number without reserving it.
3) Transitions need a note (3 to 2000 characters). Check result.ok; when false, result.code says why and nothing was persisted.
4) A LOCKED error or result means another session holds the document. Retry later; do not force.
5) run_archive_layout_migration without apply first; read the conflicts before applying.

Docs:
- pdm://docs/index
- pdm://docs/workflow
- pdm://docs/archive-layout
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
		URI:         "pdm://docs/index",
		Name:        "docs_index",
		Title:       "pdmvault docs index",
		Description: "Entry point: the tools, and what to read when.",
		Content: `# pdmvault: Agent Docs Index

## Quick start

1. ` + "`search_documents`" + ` to find a document, or ` + "`create_document`" + ` for a new one.
2. Move it through its lifecycle with ` + "`release_wip`" + `, ` + "`create_inrev`" + `, ` + "`approve_inrev`" + `, ` + "`cancel_inrev`" + `.
3. Retire it with ` + "`set_obsolete`" + `; bring it back with ` + "`restore_obsolete`" + `.
4. ` + "`recent_activity`" + ` shows who did what.

## Docs

- ` + "`pdm://docs/workflow`" + ` states, transitions and result codes.
- ` + "`pdm://docs/archive-layout`" + ` folders, file names and the layout migration.
`,
	},
	{
		URI:         "pdm://docs/workflow",
		Name:        "docs_workflow",
		Title:       "Lifecycle workflow",
		Description: "States, transitions, file moves and result codes.",
		Content: `# Lifecycle workflow

| Tool | From | To | Files |
|---|---|---|---|
| release_wip | WIP | REL | wip -> rel, write-protected |
| create_inrev | REL | IN_REV | rel copied to inrev as CODE_Rnn__INREV |
| approve_inrev | IN_REV | REL, revision+1 | rel -> rev as CODE_Rnn, inrev -> rel |
| cancel_inrev | IN_REV | REL | inrev copies deleted |
| set_obsolete | WIP, REL, IN_REV | OBS | all files write-protected |
| restore_obsolete | OBS | prior state | permissions of the prior state |

Every transition returns ` + "`{document, result}`" + `. ` + "`result.ok`" + ` false means the catalog is unchanged.

Result codes: OK, INVALID_STATE, INVALID_PRIOR_STATE, ARCHIVE_NOT_CONFIGURED, REVISION_EXISTS,
SOURCE_MISSING, CLEANUP_FAILED, IO_ERROR, LOCKED.

Approve never overwrites a historical revision: if rev already holds CODE_Rnn the approval is refused.
`,
	},
	{
		URI:         "pdm://docs/archive-layout",
		Name:        "docs_archive_layout",
		Title:       "Archive layout",
		Description: "Folder layout, file naming and the layout migration.",
		Content: `# Archive layout

    <root>/<mmm>/<gggg>/{wip,rel,inrev,rev}          PART, ASSY
    <root>/MACHINES/<mmm>/{wip,rel,inrev,rev}        MACHINE
    <root>/GROUPS/<mmm>/<gggg>/{wip,rel,inrev,rev}   GROUP

Models are .sldprt (PART) or .sldasm (others); drawings are .slddrw.

## Layout migration

` + "`run_archive_layout_migration`" + ` looks for files under older layouts (flat scope folders,
MACHINES/GROUPS-less paths, upper-case folder names, configured legacy roots) and plans moves into the
layout above. A dry run changes nothing. Conflicts (one file claimed twice, destination already present)
skip that move only; ` + "`ok`" + ` is false only on I/O errors. A second apply plans no moves.
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
