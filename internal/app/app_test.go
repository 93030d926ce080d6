package app

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"adaptivequiz/internal/client"
	"adaptivequiz/internal/completion"
	"adaptivequiz/internal/config"
	"adaptivequiz/internal/model"
	"adaptivequiz/internal/questionbank"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:          "test-secret",
		TokenTTL:           time.Hour,
		CORSAllowedOrigins: "*",
		Selection:          config.DefaultSelectionConfig(),
		Completion:         config.DefaultCompletionConfig(),
	}
}

func takeTest(t *testing.T, o *client.Orchestrator) client.Snapshot {
	t.Helper()
	ctx := context.Background()
	for {
		var snap client.Snapshot
		require.Eventually(t, func() bool {
			snap = o.Snapshot()
			return snap.Current != nil || snap.State == client.StateCompleted
		}, 5*time.Second, 5*time.Millisecond)
		if snap.State == client.StateCompleted {
			return snap
		}
		require.NoError(t, o.Answer(ctx, 4))
	}
}

func TestEndToEnd_AdaptiveSessionOverHTTP(t *testing.T) {
	questions, err := questionbank.Default()
	require.NoError(t, err)

	calls := 0
	llm := completion.Func(func(context.Context, []completion.Message, completion.Options) (string, error) {
		calls++
		return "[3, 1, 2]", nil
	})
	a := NewInMemory(testConfig(), zap.NewNop(), llm, questions)
	defer a.Close(context.Background())

	srv := httptest.NewServer(a.Router())
	defer srv.Close()

	ctx := context.Background()
	api := client.NewAPI(srv.URL, nil)
	tok, err := api.Authenticate(ctx, "")
	require.NoError(t, err)
	require.NotEmpty(t, tok.RespondentID)

	catalog, err := api.Questions(ctx)
	require.NoError(t, err)
	require.Len(t, catalog, len(questions))

	o := client.New(catalog, api, api, client.Config{
		Timings: client.Timings{
			AbortAfter:       2 * time.Second,
			AutoAdvanceAfter: time.Second,
			ConfirmDelay:     time.Millisecond,
		},
		RespondentID: tok.RespondentID,
	})
	defer o.Close()

	snap := takeTest(t, o)
	assert.Equal(t, 1, calls)
	assert.True(t, snap.Result.UsedAdaptive)
	assert.Empty(t, snap.Notices)

	ids := make([]string, len(snap.Result.Answers))
	for i, ans := range snap.Result.Answers {
		ids[i] = ans.QuestionID
	}
	// remaining after the checkpoint starts at con-02, so [3,1,2] picks
	// agr-02, con-02, ext-02
	assert.Equal(t, []string{"agr-02", "con-02", "ext-02", "neu-02"}, ids[6:10])

	recent, err := api.Recent(ctx)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, tok.RespondentID, recent[0].RespondentID)
	assert.True(t, recent[0].UsedAdaptive)
	assert.Len(t, recent[0].TraitScores, len(model.AllTraits))
}

func TestEndToEnd_OfflineFallback(t *testing.T) {
	questions, err := questionbank.Default()
	require.NoError(t, err)

	a := NewInMemory(testConfig(), zap.NewNop(), nil, questions)
	defer a.Close(context.Background())

	local := &client.Local{Selection: a.SelectionService, Results: a.ResultService, RespondentID: "local"}
	o := client.New(questions, local, local, client.Config{RespondentID: "local"})
	defer o.Close()

	snap := takeTest(t, o)
	assert.False(t, snap.Result.UsedAdaptive)
	require.Len(t, snap.Notices, 1)
	assert.Contains(t, snap.Notices[0].Message, "balanced selection")
	assert.Len(t, snap.Result.Answers, len(questions))

	stored, err := a.ResultService.Recent(context.Background(), "local")
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}
