package commands

import (
	"os"
	"testing"

	"github.com/dyluth/hype/internal/archive"
	"github.com/dyluth/hype/pkg/campaign"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupProjectDir moves into a fresh temp dir and initializes a hype
// project there so commands that read hype.yml have one to load.
func setupProjectDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	originalDir, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { os.Chdir(originalDir) })
	require.NoError(t, os.Chdir(dir))

	forceInit = false
	rootCmd.SetArgs([]string{"init"})
	require.NoError(t, rootCmd.Execute())
	return dir
}

// resetListFlags clears flag state carried over from earlier executions.
func resetListFlags() {
	listSince = ""
	listUntil = ""
	listCity = ""
	listMinScore = 0
	listJSON = false
	configPath = "hype.yml"
}

func seedArchive(t *testing.T, title, city string, score int) {
	t.Helper()

	db, err := archive.Open("campaign-archive.db")
	require.NoError(t, err)
	defer db.Close()

	pkg := &campaign.CampaignPackage{
		ID:          uuid.New().String(),
		RunID:       uuid.New().String(),
		CreatedAtMs: 1000,
		SourceEvent: campaign.ScoredEvent{
			Event: campaign.Event{Source: "downtown-events", Title: title, Location: city},
			Score: score,
		},
		Brief:  campaign.CreativeBrief{Angle: "a", KeyMessage: "k"},
		Visual: campaign.VisualAsset{Status: campaign.AssetStatusSkipped},
	}
	require.NoError(t, db.Insert(pkg, "campaign-packages/"+pkg.ID+".json"))
}

func TestListCommand_EmptyArchive(t *testing.T) {
	setupProjectDir(t)

	resetListFlags()
	rootCmd.SetArgs([]string{"list"})
	assert.NoError(t, rootCmd.Execute())
}

func TestListCommand_WithCampaigns(t *testing.T) {
	setupProjectDir(t)
	seedArchive(t, "Night Market", "Springfield", 8)
	seedArchive(t, "Bake Sale", "Shelbyville", 9)

	resetListFlags()
	rootCmd.SetArgs([]string{"list", "--city", "Springfield", "--min-score", "7"})
	assert.NoError(t, rootCmd.Execute())

	resetListFlags()
	rootCmd.SetArgs([]string{"list", "--json"})
	assert.NoError(t, rootCmd.Execute())
}

func TestListCommand_BadTimeFilter(t *testing.T) {
	setupProjectDir(t)

	resetListFlags()
	rootCmd.SetArgs([]string{"list", "--since", "not-a-time"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid time specification")
}
