package panel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfrayne/bitpane/internal/application"
	"github.com/mfrayne/bitpane/internal/domain/model"
)

func sampleArgs() *application.DiffViewArgs {
	return &application.DiffViewArgs{
		DisplayPath: "src/{api/handler.go → http/handler.go}",
		Left: application.SideView{
			Identity: application.FileIdentity{
				Host:         "bitbucket.org",
				Repo:         "acme/widgets",
				RepoURI:      "https://bitbucket.org/acme/widgets",
				Branch:       "main",
				CommitHash:   "basehash",
				Path:         "api/handler.go",
				PRID:         "42",
				DeletedLines: []int{3, 4},
				LineContext:  map[int]int{10: 9},
			},
		},
		Right: application.SideView{
			Identity: application.FileIdentity{
				Host:       "bitbucket.org",
				Repo:       "acme/widgets",
				Branch:     "feature",
				CommitHash: "tiphash",
				Path:       "http/handler.go",
				PRID:       "42",
				AddedLines: []int{5},
			},
			Threads: []model.Comment{{ID: "101", RawContent: "why move this?"}},
		},
		TotalComments: 1,
	}
}

func TestDiffViewQuery_RoundTrip(t *testing.T) {
	query, err := EncodeDiffViewQuery(sampleArgs())
	require.NoError(t, err)

	decoded, err := DecodeDiffViewQuery(query)
	require.NoError(t, err)

	assert.Equal(t, sampleArgs(), decoded)
}

func TestDecodeDiffViewQuery_MissingParam(t *testing.T) {
	_, err := DecodeDiffViewQuery("other=1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "args")
}

func TestDecodeDiffViewQuery_MalformedJSON(t *testing.T) {
	_, err := DecodeDiffViewQuery("args=%7Bnot-json")

	assert.Error(t, err)
}

func TestEncodeDiffViewQuery_SurvivesSpecialCharacters(t *testing.T) {
	args := sampleArgs()
	args.DisplayPath = "dir with space/file&name.go"

	query, err := EncodeDiffViewQuery(args)
	require.NoError(t, err)

	decoded, err := DecodeDiffViewQuery(query)
	require.NoError(t, err)
	assert.Equal(t, args.DisplayPath, decoded.DisplayPath)
}
