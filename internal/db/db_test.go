package db

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankcards/internal/config"
	"bankcards/internal/model"
	"bankcards/internal/repository/memory"
)

func TestOpenRejectsUnknownDriver(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	_, err := Open(config.DatabaseConfig{Driver: "memory"}, log)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestModels(t *testing.T) {
	models := Models()
	require.Len(t, models, 2)
	assert.IsType(t, &model.Card{}, models[0])
	assert.IsType(t, &model.TransferRecord{}, models[1])
}

func TestOpenStoreMemory(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	store, err := OpenStore(config.DatabaseConfig{Driver: "memory"}, log)
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, store)
}
