package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundrag/backend/internal/resolver"
	"fundrag/backend/pkg/config"
	apperrors "fundrag/backend/pkg/errors"
)

const dataDir = "../../data"

func testConfig(source string) *config.Config {
	return &config.Config{
		DataSource:     source,
		DataDir:        dataDir,
		SnapshotFile:   filepath.Join(dataDir, "knowledge_base.yaml"),
		LiteLLMURL:     "http://localhost:4000",
		ModelID:        "test-model",
		LLMTemperature: 0.2,
		LLMMaxTokens:   250,
		LLMMaxRetries:  3,
	}
}

func TestStart_LoadsConfiguredSource(t *testing.T) {
	for _, source := range []string{config.SourceCSV, config.SourceYAML} {
		t.Run(source, func(t *testing.T) {
			s, err := Start(context.Background(), testConfig(source))
			require.NoError(t, err)
			defer s.Close(context.Background())

			snap := s.Store.Current()
			require.NotNil(t, snap)
			assert.Equal(t, source, snap.Source())
			assert.Equal(t, "test-model", s.LLM.GetModel())

			res := s.Orchestrator.Retrieve("Which funds does Alpha Management Corp manage?")
			assert.Equal(t, resolver.IntentFundsByAMC, res.Intent)
		})
	}
}

func TestStart_FailedLoadServesWithoutData(t *testing.T) {
	cfg := testConfig(config.SourceCSV)
	cfg.DataDir = t.TempDir()

	s, err := Start(context.Background(), cfg)
	require.NoError(t, err)

	assert.Nil(t, s.Store.Current())
	res := s.Orchestrator.Retrieve("Find high risk funds")
	assert.True(t, res.Unavailable())

	require.NoError(t, s.Close(context.Background()))
	require.NoError(t, s.Close(context.Background()))
}

func TestNewLoader_UnknownSource(t *testing.T) {
	_, _, err := NewLoader(context.Background(), testConfig("sqlite"))
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeConfig))
}

func TestConnectGraph_RequiresSettings(t *testing.T) {
	cfg := testConfig(config.SourceNeo4j)
	_, err := ConnectGraph(context.Background(), cfg)

	var missing *apperrors.ErrConfigMissingRequired
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "NEO4J_URI", missing.Field)
}
