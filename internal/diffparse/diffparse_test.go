package diffparse

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/owayo/astro-sight/internal/types"
)

func TestParseModifiedFile(t *testing.T) {
	diff := `--- a/main.go
+++ b/main.go
@@ -1,3 +1,4 @@
 package main

-func old() {}
+func newFn() {}
+func extra() {}
`
	files, err := Parse(diff)
	require.NoError(t, err)
	require.Len(t, files, 1)
	f := files[0]
	require.Equal(t, "main.go", f.Path)
	require.False(t, f.AddOnly)
	require.False(t, f.RemoveOnly)
	require.Len(t, f.Hunks, 1)
	h := f.Hunks[0]
	require.Equal(t, 1, h.OldStart)
	require.Equal(t, 3, h.OldCount)
	require.Equal(t, 1, h.NewStart)
	require.Equal(t, 4, h.NewCount)

	var added, removed int
	for _, l := range h.Lines {
		switch l.Kind {
		case types.DiffLineAdded:
			added++
		case types.DiffLineRemoved:
			removed++
		}
	}
	require.Equal(t, 2, added)
	require.Equal(t, 1, removed)
}

func TestParseAddOnlyFile(t *testing.T) {
	diff := `--- /dev/null
+++ b/new.go
@@ -0,0 +1,2 @@
+package main
+
`
	files, err := Parse(diff)
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.True(t, files[0].AddOnly)
	require.Equal(t, "new.go", files[0].Path)
}

func TestParseRemoveOnlyFile(t *testing.T) {
	diff := `--- a/gone.go
+++ /dev/null
@@ -1,2 +0,0 @@
-package main
-
`
	files, err := Parse(diff)
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.True(t, files[0].RemoveOnly)
	require.Equal(t, "gone.go", files[0].Path)
}

func TestParseMultipleFiles(t *testing.T) {
	diff := `--- a/a.go
+++ b/a.go
@@ -1,1 +1,1 @@
-old
+new
--- a/b.go
+++ b/b.go
@@ -1,1 +1,1 @@
-old2
+new2
`
	files, err := Parse(diff)
	require.NoError(t, err)
	require.Len(t, files, 2)
	require.Equal(t, "a.go", files[0].Path)
	require.Equal(t, "b.go", files[1].Path)
}

func TestParseMalformedHunkHeader(t *testing.T) {
	diff := `--- a/x.go
+++ b/x.go
@@ garbage @@
 x
`
	_, err := Parse(diff)
	require.Error(t, err)
}
