package triage

import (
	"testing"

	"github.com/rpggio/voicenotes/internal/domain/note"
	"github.com/rpggio/voicenotes/internal/viewcache"
	"github.com/stretchr/testify/require"
)

func selectorNames(sels []viewcache.Selector) []string {
	names := make([]string, 0, len(sels))
	for _, s := range sels {
		names = append(names, s.String())
	}
	return names
}

func TestNoteChange_Projects(t *testing.T) {
	tests := []struct {
		name   string
		change noteChange
		want   []string
	}{
		{"inbox to project", noteChange{Before: &note.Note{}, After: strPtr("p1")}, []string{"p1"}},
		{"project to project", noteChange{Before: &note.Note{ProjectID: strPtr("p1")}, After: strPtr("p2")}, []string{"p1", "p2"}},
		{"same project", noteChange{Before: &note.Note{ProjectID: strPtr("p1")}, After: strPtr("p1")}, []string{"p1"}},
		{"project to inbox", noteChange{Before: &note.Note{ProjectID: strPtr("p1")}}, []string{"p1"}},
		{"inbox delete", noteChange{Before: &note.Note{}, Deleted: true}, nil},
		{"project delete", noteChange{Before: &note.Note{ProjectID: strPtr("p1")}, After: strPtr("p1"), Deleted: true}, []string{"p1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.change.projects())
		})
	}
}

func TestNoteChange_Selectors(t *testing.T) {
	sels := noteChange{NoteID: "n1", Before: &note.Note{ProjectID: strPtr("p1")}, After: strPtr("p2")}.selectors()

	require.ElementsMatch(t, []string{
		"note/n1/",
		"inbox/*",
		"inbox_stats/*",
		"search/*",
		"project_notes/p1/*",
		"project/p1/",
		"project_notes/p2/*",
		"project/p2/",
		"project_list/*",
	}, selectorNames(sels))

	inboxOnly := noteChange{NoteID: "n1", Before: &note.Note{}}.selectors()
	require.NotContains(t, selectorNames(inboxOnly), "project_list/*")
}

func TestProjectChange_Selectors(t *testing.T) {
	require.Equal(t, []string{"project_list/*"}, selectorNames(projectChange{ProjectID: "p1", Created: true}.selectors()))
	require.Equal(t, []string{"project_list/*", "project/p1/"}, selectorNames(projectChange{ProjectID: "p1"}.selectors()))
	require.Equal(t, []string{"project_list/*", "project/p1/", "note/*", "project_notes/p1/*", "search/*"},
		selectorNames(projectChange{ProjectID: "p1", NameChanged: true}.selectors()))
}
