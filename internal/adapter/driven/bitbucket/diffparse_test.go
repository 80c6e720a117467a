package bitbucket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDiff = `diff --git a/main.go b/main.go
index 1111111..2222222 100644
--- a/main.go
+++ b/main.go
@@ -10,6 +10,7 @@ func main() {
 	a := 1
-	b := 2
+	b := 3
+	c := 4
 	fmt.Println(a, b)
@@ -30,3 +31,3 @@ func helper() {
 	return
-	// dead
+	// alive
diff --git a/gone.go b/gone.go
deleted file mode 100644
--- a/gone.go
+++ /dev/null
@@ -1,2 +0,0 @@
-package old
-// nothing left
`

func TestParseDiffLineMaps_TracksBothSides(t *testing.T) {
	maps := parseDiffLineMaps(sampleDiff)

	m, ok := maps["main.go"]
	require.True(t, ok)

	assert.Equal(t, []int{11, 12, 32}, m.added)
	assert.Equal(t, []int{11, 31}, m.deleted)
	// Context lines translate new-side numbers back to old-side numbers.
	assert.Equal(t, 10, m.context[10])
	assert.Equal(t, 12, m.context[13])
	assert.Equal(t, 30, m.context[31])
}

func TestParseDiffLineMaps_DeletedFileKeyedByOldPath(t *testing.T) {
	maps := parseDiffLineMaps(sampleDiff)

	m, ok := maps["gone.go"]
	require.True(t, ok)
	assert.Equal(t, []int{1, 2}, m.deleted)
	assert.Empty(t, m.added)
}

func TestParseDiffLineMaps_NoNewlineMarkerIgnored(t *testing.T) {
	diff := "diff --git a/x b/x\n" +
		"--- a/x\n" +
		"+++ b/x\n" +
		"@@ -1,1 +1,1 @@\n" +
		"-old\n" +
		"\\ No newline at end of file\n" +
		"+new\n" +
		"\\ No newline at end of file\n"

	maps := parseDiffLineMaps(diff)

	m := maps["x"]
	assert.Equal(t, []int{1}, m.added)
	assert.Equal(t, []int{1}, m.deleted)
}

func TestParseDiffLineMaps_EmptyInput(t *testing.T) {
	assert.Empty(t, parseDiffLineMaps(""))
}

func TestParseHunkHeader(t *testing.T) {
	oldStart, newStart := parseHunkHeader("@@ -10,6 +12,7 @@ func main() {")
	assert.Equal(t, 10, oldStart)
	assert.Equal(t, 12, newStart)

	// Single-line hunks omit the count.
	oldStart, newStart = parseHunkHeader("@@ -3 +4 @@")
	assert.Equal(t, 3, oldStart)
	assert.Equal(t, 4, newStart)

	oldStart, newStart = parseHunkHeader("@@ garbage")
	assert.Zero(t, oldStart)
	assert.Zero(t, newStart)
}
