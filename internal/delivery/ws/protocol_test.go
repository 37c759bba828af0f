// internal/delivery/ws/protocol_test.go
package ws

import (
	"encoding/json"
	"testing"

	"forex-quotes-streamer/internal/core/domain/quotes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointResponseWireFormat(t *testing.T) {
	resp := NewPointResponse(
		quotes.Asset{ID: 1, Name: "EURUSD"},
		quotes.BusMessage{AssetID: 1, Timestamp: 1700000000, Value: 1.11},
	)

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"action": "point",
		"message": {"assetName": "EURUSD", "time": 1700000000, "assetId": 1, "value": 1.11}
	}`, string(data))
}

func TestAssetNotFoundWireFormat(t *testing.T) {
	data, err := json.Marshal(NewAssetNotFoundResponse())
	require.NoError(t, err)

	assert.JSONEq(t, `{"action": "error", "code": 412, "message": "Asset not found"}`, string(data))
}

func TestUnknownActionWireFormat(t *testing.T) {
	data, err := json.Marshal(NewUnknownActionResponse("frobnicate"))
	require.NoError(t, err)

	// Код у ошибки про неизвестное действие не проставляется
	assert.JSONEq(t, `{"action": "error", "message": "Unknown action: frobnicate"}`, string(data))
}

func TestAssetsResponseWireFormat(t *testing.T) {
	resp := NewAssetsResponse([]quotes.Asset{
		{ID: 1, Name: "EURUSD"},
		{ID: 2, Name: "USDJPY"},
	})

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"action": "assets",
		"message": {"assets": [{"id": 1, "name": "EURUSD"}, {"id": 2, "name": "USDJPY"}]}
	}`, string(data))
}
